package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
	"github.com/fieldops-hvac/planning/backend/internal/export"
	"github.com/fieldops-hvac/planning/backend/internal/planning"
)

type WeekPlanning struct {
	WeekStart     time.Time               `json:"weekStart"`
	WeekEnd       time.Time               `json:"weekEnd"`
	Missions      []*domain.Mission       `json:"missions"`
	Conflicts     []int64                 `json:"conflicts"`
	ConflictPairs []planning.ConflictPair `json:"conflictPairs"`
	Grid          *planning.WeekGrid      `json:"grid"`
}

type DayPlanning struct {
	Date          time.Time               `json:"date"`
	Missions      []*domain.Mission       `json:"missions"`
	Conflicts     []int64                 `json:"conflicts"`
	ConflictPairs []planning.ConflictPair `json:"conflictPairs"`
	Day           *planning.TechnicianDay `json:"day"`
}

// 冲突只在同一次加载的任务之间计算，每次加载都重新计算
func (h *Handler) loadWeekPlanning(date time.Time) (*WeekPlanning, error) {
	loc := h.planning.Location
	from, to := planning.WeekRange(date, loc)

	missions, err := h.repository.GetMissionsInRange(from, to)
	if err != nil {
		return nil, err
	}

	conflicts := planning.DetectConflicts(missions, loc)

	return &WeekPlanning{
		WeekStart:     from,
		WeekEnd:       to,
		Missions:      missions,
		Conflicts:     conflicts.IDs(),
		ConflictPairs: planning.ConflictPairs(missions, loc),
		Grid:          planning.BuildWeekGrid(from, missions, conflicts, h.planning),
	}, nil
}

func (h *Handler) loadDayPlanning(date time.Time) (*DayPlanning, error) {
	loc := h.planning.Location
	from, to := planning.DayRange(date, loc)

	technicians, err := h.repository.GetActiveTechnicians()
	if err != nil {
		return nil, err
	}

	missions, err := h.repository.GetMissionsInRange(from, to)
	if err != nil {
		return nil, err
	}

	conflicts := planning.DetectConflicts(missions, loc)

	return &DayPlanning{
		Date:          from,
		Missions:      missions,
		Conflicts:     conflicts.IDs(),
		ConflictPairs: planning.ConflictPairs(missions, loc),
		Day:           planning.BuildTechnicianDay(from, technicians, missions, conflicts, h.planning),
	}, nil
}

func (h *Handler) GetWeekPlanning(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	week, err := h.loadWeekPlanning(date)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取周排班表成功", week)
}

func (h *Handler) ExportWeekPlanning(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	week, err := h.loadWeekPlanning(date)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	data, err := export.WeekWorkbook(week.Grid, h.planning.Location)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	filename := fmt.Sprintf("planning-%s.xlsx", week.WeekStart.Format(dateLayout))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("写入导出文件失败", "requestID", r.Context().Value(RequestIDCtxKey), "error", err)
	}
}

func (h *Handler) GetDayPlanning(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	day, err := h.loadDayPlanning(date)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取技术员日视图成功", day)
}

func relocateLockKey(missionID int64) string {
	return fmt.Sprintf("relocate_mission_%d", missionID)
}

// RelocateMission 处理一次拖放：计算新的时间段，写入数据库，然后重新加载整个视图
func (h *Handler) RelocateMission(w http.ResponseWriter, r *http.Request) {
	m := r.Context().Value(MissionCtx).(*domain.Mission)

	var req struct {
		Date         string `json:"date" validate:"required,datetime=2006-01-02"`
		Hour         int    `json:"hour" validate:"min=0,max=23"`
		TechnicianID *int64 `json:"technicianID" validate:"omitempty,gt=0"`
		View         string `json:"view" validate:"required,oneof=week day"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, err := h.parseDate(req.Date)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 只有多技术员视图中的拖放才会改变任务的技术员
	reassign := req.View == "day"
	if reassign && req.TechnicianID != nil {
		t, err := h.repository.GetTechnicianByID(*req.TechnicianID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "技术员不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		if !t.IsActive {
			h.errorResponse(w, r, "该技术员已停用")
			return
		}
	}

	key := relocateLockKey(m.ID)
	ttl := time.Duration(h.config.Planning.RelocationLockTTL) * time.Second
	token, ok, err := h.locker.TryLock(r.Context(), key, ttl)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !ok {
		h.errorResponse(w, r, "该任务正在被其他人调整，请稍后重试")
		return
	}
	defer func() {
		if err := h.locker.Unlock(context.Background(), key, token); err != nil {
			slog.Error("释放任务锁失败", "missionID", m.ID, "error", err)
		}
	}()

	rel, err := planning.Relocate(m, planning.Drop{
		Date:         date,
		Hour:         req.Hour,
		Reassign:     reassign,
		TechnicianID: req.TechnicianID,
	}, h.planning)
	if err != nil {
		switch {
		case errors.Is(err, planning.ErrMissingWindow),
			errors.Is(err, planning.ErrInvalidWindow),
			errors.Is(err, planning.ErrHourOutOfGrid):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	rel.Apply(m)
	if err := h.repository.UpdateMissionSchedule(m); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "任务已被其他人修改，请刷新后重试")
		default:
			slog.Error("更新任务时间失败", "missionID", m.ID, "error", err)
			h.internalServerError(w, r, err)
		}
		return
	}

	h.notifyRelocation(r.Context(), m)

	// 写入成功后重新加载整个视图，而不是在本地合并修改
	var data any
	switch req.View {
	case "day":
		data, err = h.loadDayPlanning(date)
	default:
		data, err = h.loadWeekPlanning(date)
	}
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "调整任务时间成功", data)
}

// notifyRelocation 通知任务的技术员，发送失败只记录日志
func (h *Handler) notifyRelocation(ctx context.Context, m *domain.Mission) {
	if m.PlanningTechnicianID == nil {
		return
	}

	t, err := h.repository.GetTechnicianByID(*m.PlanningTechnicianID)
	if err != nil {
		slog.Warn("无法获取技术员信息，跳过邮件通知", "missionID", m.ID, "error", err)
		return
	}
	if t.Email == nil || *t.Email == "" {
		return
	}

	msg := domain.MailMessage{
		Type: domain.MailTypeMissionRelocated,
		To:   *t.Email,
		Data: domain.MissionRelocatedMailData{
			TechnicianName: t.FullName,
			MissionID:      m.ID,
			ClientName:     m.ClientName,
			Address:        m.Address,
			City:           m.City,
			WindowStart:    *m.ScheduledWindowStart,
			WindowEnd:      *m.ScheduledWindowEnd,
		},
	}
	if err := h.mailer.Publish(ctx, msg); err != nil {
		slog.Warn("发送任务调整通知失败", "missionID", m.ID, "to", *t.Email, "error", err)
	}
}
