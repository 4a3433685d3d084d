package repository

import (
	"context"
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
)

const missionColumns = `
	id,
	client_name,
	description,
	address,
	city,
	type,
	scheduled_start,
	scheduled_window_start,
	scheduled_window_end,
	status,
	planning_technician_id,
	created_at,
	version
`

func missionDst(m *domain.Mission) []any {
	return []any{
		&m.ID,
		&m.ClientName,
		&m.Description,
		&m.Address,
		&m.City,
		&m.Type,
		&m.ScheduledStart,
		&m.ScheduledWindowStart,
		&m.ScheduledWindowEnd,
		&m.Status,
		&m.PlanningTechnicianID,
		&m.CreatedAt,
		&m.Version,
	}
}

// GetMissionsInRange 获取 scheduled_start 在 [from, to) 内的所有任务，按 scheduled_start 排序
func (r *Repository) GetMissionsInRange(from, to time.Time) ([]*domain.Mission, error) {
	query := `SELECT` + missionColumns + `
		FROM missions
		WHERE scheduled_start >= $1 AND scheduled_start < $2
		ORDER BY scheduled_start
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	missions := []*domain.Mission{}
	for rows.Next() {
		var m domain.Mission
		if err := rows.Scan(missionDst(&m)...); err != nil {
			return nil, err
		}
		missions = append(missions, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return missions, nil
}

func (r *Repository) GetMissionByID(id int64) (*domain.Mission, error) {
	query := `SELECT` + missionColumns + `FROM missions WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	m := &domain.Mission{}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(missionDst(m)...); err != nil {
		return nil, err
	}

	return m, nil
}

func (r *Repository) CreateMission(m *domain.Mission) error {
	query := `
		INSERT INTO missions (
			client_name,
			description,
			address,
			city,
			type,
			scheduled_start,
			scheduled_window_start,
			scheduled_window_end,
			status,
			planning_technician_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		m.ClientName,
		m.Description,
		m.Address,
		m.City,
		m.Type,
		m.ScheduledStart,
		m.ScheduledWindowStart,
		m.ScheduledWindowEnd,
		m.Status,
		m.PlanningTechnicianID,
	}
	dst := []any{&m.ID, &m.CreatedAt, &m.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

// UpdateMissionSchedule 只更新任务的时间段和技术员，version 不匹配时返回 sql.ErrNoRows
func (r *Repository) UpdateMissionSchedule(m *domain.Mission) error {
	query := `
		UPDATE missions
		SET
			scheduled_start = $1,
			scheduled_window_start = $2,
			scheduled_window_end = $3,
			planning_technician_id = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		m.ScheduledStart,
		m.ScheduledWindowStart,
		m.ScheduledWindowEnd,
		m.PlanningTechnicianID,
		m.ID,
		m.Version,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&m.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateMissionStatus(m *domain.Mission) error {
	query := `
		UPDATE missions
		SET
			status = $1,
			version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, m.Status, m.ID, m.Version).Scan(&m.Version); err != nil {
		return err
	}

	return nil
}
