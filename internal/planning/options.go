package planning

import "time"

// 排班表的展示参数，默认为 7:00 - 19:00，工作量基准为 8 小时
type Options struct {
	Location      *time.Location
	FirstHour     int
	LastHour      int
	BaselineHours float64
}

func DefaultOptions() Options {
	return Options{
		Location:      time.UTC,
		FirstHour:     7,
		LastHour:      19,
		BaselineHours: 8,
	}
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// Hours 返回排班表中所有的小时格子（包含 FirstHour 和 LastHour）
func (o Options) Hours() []int {
	hours := make([]int, 0, o.LastHour-o.FirstHour+1)
	for h := o.FirstHour; h <= o.LastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

func (o Options) inGrid(hour int) bool {
	return hour >= o.FirstHour && hour <= o.LastHour
}
