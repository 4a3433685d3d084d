package planning

import (
	"errors"
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
)

var (
	ErrMissingWindow = errors.New("该任务还没有排定时间段")
	ErrInvalidWindow = errors.New("该任务的结束时间必须晚于开始时间")
	ErrHourOutOfGrid = errors.New("目标时段不在排班表范围内")
)

// Drop 描述一次拖放：拖到哪一天的哪个小时
// 在多技术员视图中，拖到某个技术员的行上同时意味着把任务分配给该技术员（TechnicianID 为 nil 表示取消分配）
type Drop struct {
	Date         time.Time
	Hour         int
	Reassign     bool
	TechnicianID *int64
}

type Relocation struct {
	MissionID      int64     `json:"missionID"`
	Version        int32     `json:"-"`
	ScheduledStart time.Time `json:"scheduledStart"`
	WindowStart    time.Time `json:"windowStart"`
	WindowEnd      time.Time `json:"windowEnd"`
	Reassign       bool      `json:"reassign"`
	TechnicianID   *int64    `json:"technicianID"`
}

// Relocate 计算任务被拖放到 (d.Date, d.Hour) 之后的新时间段，保持原有时长不变
func Relocate(m *domain.Mission, d Drop, opts Options) (*Relocation, error) {
	w, ok := WindowOf(m)
	if !ok {
		return nil, ErrMissingWindow
	}
	if !w.Valid() {
		return nil, ErrInvalidWindow
	}
	if !opts.inGrid(d.Hour) {
		return nil, ErrHourOutOfGrid
	}

	loc := opts.location()
	day := DateOf(d.Date, loc)
	newStart := time.Date(day.Year(), day.Month(), day.Day(), d.Hour, 0, 0, 0, loc)
	newEnd := newStart.Add(w.Duration())

	rel := &Relocation{
		MissionID:      m.ID,
		Version:        m.Version,
		ScheduledStart: newStart,
		WindowStart:    newStart,
		WindowEnd:      newEnd,
		Reassign:       d.Reassign,
		TechnicianID:   m.PlanningTechnicianID,
	}
	if d.Reassign {
		rel.TechnicianID = d.TechnicianID
	}

	return rel, nil
}

// Apply 将新的时间段写回任务中，供 repository 持久化
func (rel *Relocation) Apply(m *domain.Mission) {
	start := rel.WindowStart
	end := rel.WindowEnd

	m.ScheduledStart = rel.ScheduledStart
	m.ScheduledWindowStart = &start
	m.ScheduledWindowEnd = &end
	if rel.Reassign {
		m.PlanningTechnicianID = rel.TechnicianID
	}
}
