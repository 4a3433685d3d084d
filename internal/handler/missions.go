package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
	"github.com/fieldops-hvac/planning/backend/internal/utils"
	"github.com/jackc/pgx/v5/pgconn"
)

const dateLayout = "2006-01-02"

// parseDate 按排班时区解析 YYYY-MM-DD，参数为空时返回今天
func (h *Handler) parseDate(value string) (time.Time, error) {
	if value == "" {
		now := time.Now().In(h.planning.Location)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.planning.Location), nil
	}

	d, err := time.ParseInLocation(dateLayout, value, h.planning.Location)
	if err != nil {
		return time.Time{}, errors.New("日期格式错误，应为 YYYY-MM-DD")
	}
	return d, nil
}

func (h *Handler) GetMissions(w http.ResponseWriter, r *http.Request) {
	from, err := h.parseDate(r.URL.Query().Get("from"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	// to 为空时默认查询 from 之后的 7 天
	to := from.AddDate(0, 0, 7)
	if value := r.URL.Query().Get("to"); value != "" {
		if to, err = h.parseDate(value); err != nil {
			h.badRequest(w, r, err)
			return
		}
	}

	if !to.After(from) {
		h.badRequest(w, r, errors.New("结束日期必须晚于开始日期"))
		return
	}

	missions, err := h.repository.GetMissionsInRange(from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取任务列表成功", missions)
}

func (h *Handler) GetMission(w http.ResponseWriter, r *http.Request) {
	m := r.Context().Value(MissionCtx).(*domain.Mission)
	h.successResponse(w, r, "获取任务成功", m)
}

func (h *Handler) CreateMission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientName           string     `json:"clientName" validate:"required"`
		Description          string     `json:"description"`
		Address              string     `json:"address"`
		City                 string     `json:"city"`
		Type                 string     `json:"type" validate:"required,oneof=INST ENTR DEP PACS"`
		ScheduledStart       *time.Time `json:"scheduledStart"`
		ScheduledWindowStart *time.Time `json:"scheduledWindowStart"`
		ScheduledWindowEnd   *time.Time `json:"scheduledWindowEnd"`
		PlanningTechnicianID *int64     `json:"planningTechnicianID" validate:"omitempty,gt=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	m := &domain.Mission{
		ClientName:           req.ClientName,
		Description:          req.Description,
		Address:              req.Address,
		City:                 req.City,
		Type:                 domain.MissionType(req.Type),
		ScheduledWindowStart: req.ScheduledWindowStart,
		ScheduledWindowEnd:   req.ScheduledWindowEnd,
		Status:               domain.MissionStatusPlanned,
		PlanningTechnicianID: req.PlanningTechnicianID,
	}

	if err := utils.ValidateMissionWindow(m); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// scheduled_start 缺省时与时间段的开始时间一致
	switch {
	case req.ScheduledStart != nil:
		m.ScheduledStart = *req.ScheduledStart
	case req.ScheduledWindowStart != nil:
		m.ScheduledStart = *req.ScheduledWindowStart
	default:
		h.badRequest(w, r, errors.New("必须填写计划开始时间或时间段"))
		return
	}

	if err := h.repository.CreateMission(m); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "missions_planning_technician_id_fkey":
				h.errorResponse(w, r, "技术员不存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建任务成功", m)
}

func (h *Handler) UpdateMissionStatus(w http.ResponseWriter, r *http.Request) {
	m := r.Context().Value(MissionCtx).(*domain.Mission)

	var req struct {
		Status string `json:"status" validate:"required,oneof=planned in_progress done cancelled"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	status := domain.MissionStatus(req.Status)
	if err := utils.ValidateMissionStatusTransition(m.Status, status); err != nil {
		h.badRequest(w, r, err)
		return
	}

	m.Status = status
	if err := h.repository.UpdateMissionStatus(m); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "任务已被修改，请刷新后重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新任务状态成功", m)
}
