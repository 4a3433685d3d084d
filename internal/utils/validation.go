package utils

import (
	"errors"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
)

// ValidateMissionWindow 检查任务时间段：要么都为空，要么都不为空且结束时间晚于开始时间
func ValidateMissionWindow(m *domain.Mission) error {
	if m.ScheduledWindowStart == nil && m.ScheduledWindowEnd == nil {
		return nil
	}

	if m.ScheduledWindowStart == nil || m.ScheduledWindowEnd == nil {
		return errors.New("时间段的开始时间和结束时间必须同时填写")
	}

	if !m.ScheduledWindowEnd.After(*m.ScheduledWindowStart) {
		return errors.New("时间段的结束时间必须晚于开始时间")
	}

	return nil
}

// ValidateMissionStatusTransition 已完成或已取消的任务不能再修改状态
func ValidateMissionStatusTransition(from, to domain.MissionStatus) error {
	if from == to {
		return errors.New("任务已经处于该状态")
	}

	if from == domain.MissionStatusDone || from == domain.MissionStatusCancelled {
		return errors.New("已完成或已取消的任务不能再修改状态")
	}

	return nil
}
