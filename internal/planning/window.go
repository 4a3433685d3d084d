package planning

import (
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
)

// Window 表示任务的忙碌时间段 [Start, End)
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func (w Window) Hours() float64 {
	return w.Duration().Hours()
}

func (w Window) Valid() bool {
	return w.End.After(w.Start)
}

// Overlaps 使用严格不等号，首尾相接的两个时间段不算重叠
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && w.End.After(o.Start)
}

func (w Window) Day(loc *time.Location) time.Time {
	return DateOf(w.Start, loc)
}

// WindowOf 返回任务的时间段，如果任务的开始或结束时间为空则返回 false
func WindowOf(m *domain.Mission) (Window, bool) {
	if m == nil || m.ScheduledWindowStart == nil || m.ScheduledWindowEnd == nil {
		return Window{}, false
	}
	return Window{Start: *m.ScheduledWindowStart, End: *m.ScheduledWindowEnd}, true
}

func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func SameDay(a, b time.Time, loc *time.Location) bool {
	return DateOf(a, loc).Equal(DateOf(b, loc))
}

// WeekStart 返回 t 所在周的周一零点
func WeekStart(t time.Time, loc *time.Location) time.Time {
	d := DateOf(t, loc)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func WeekRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	from := WeekStart(t, loc)
	return from, from.AddDate(0, 0, 7)
}

func DayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	from := DateOf(t, loc)
	return from, from.AddDate(0, 0, 1)
}
