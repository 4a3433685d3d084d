package domain

import "time"

type MissionType string

const (
	MissionTypeInstallation MissionType = "INST"
	MissionTypeMaintenance  MissionType = "ENTR"
	MissionTypeDispatch     MissionType = "DEP"
	MissionTypeOther        MissionType = "PACS"
)

type MissionStatus string

const (
	MissionStatusPlanned    MissionStatus = "planned"
	MissionStatusInProgress MissionStatus = "in_progress"
	MissionStatusDone       MissionStatus = "done"
	MissionStatusCancelled  MissionStatus = "cancelled"
)

type Mission struct {
	ID                   int64         `json:"id"`
	ClientName           string        `json:"clientName"`
	Description          string        `json:"description"`
	Address              string        `json:"address"`
	City                 string        `json:"city"`
	Type                 MissionType   `json:"type"`
	ScheduledStart       time.Time     `json:"scheduledStart"`
	ScheduledWindowStart *time.Time    `json:"scheduledWindowStart"` // 为空时表示该任务还没有确定时间段
	ScheduledWindowEnd   *time.Time    `json:"scheduledWindowEnd"`
	Status               MissionStatus `json:"status"`
	PlanningTechnicianID *int64        `json:"planningTechnicianID"`
	CreatedAt            time.Time     `json:"createdAt"`
	Version              int32         `json:"-"`
}
