package planning

import (
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
)

type LoadLevel string

const (
	LoadNormal LoadLevel = "normal" // < 80%，绿色
	LoadHigh   LoadLevel = "high"   // 80% - 100%，橙色
	LoadOver   LoadLevel = "over"   // > 100%，红色
)

type Workload struct {
	Hours    float64 `json:"hours"`
	Missions int     `json:"missions"`
}

// TechWorkload 统计某技术员在 date 当天的任务数量和总时长（小时）
func TechWorkload(missions []*domain.Mission, technicianID int64, date time.Time, loc *time.Location) Workload {
	wl := Workload{}
	day := DateOf(date, loc)

	for _, m := range missions {
		if m.PlanningTechnicianID == nil || *m.PlanningTechnicianID != technicianID {
			continue
		}
		w, ok := WindowOf(m)
		if !ok || !w.Day(loc).Equal(day) {
			continue
		}
		wl.Hours += w.Hours()
		wl.Missions++
	}

	return wl
}

func (wl Workload) Percent(baselineHours float64) float64 {
	if baselineHours <= 0 {
		return 0
	}
	return wl.Hours / baselineHours * 100
}

func (wl Workload) Level(baselineHours float64) LoadLevel {
	p := wl.Percent(baselineHours)
	switch {
	case p < 80:
		return LoadNormal
	case p <= 100:
		return LoadHigh
	default:
		return LoadOver
	}
}

// BarWidth 是进度条的宽度百分比，超负荷时也只显示满格
func (wl Workload) BarWidth(baselineHours float64) float64 {
	return min(wl.Percent(baselineHours), 100)
}
