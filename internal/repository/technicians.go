package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
)

func (r *Repository) getTechnicians(onlyActive bool) ([]*domain.Technician, error) {
	query := `
		SELECT
			pt.id,
			pt.full_name,
			pt.email,
			pt.color,
			pt.is_active,
			pt.created_at,
			pt.version,
			pts.specialty
		FROM planning_technicians pt
		LEFT JOIN planning_technician_specialties pts ON pt.id = pts.technician_id
		WHERE ($1 = FALSE OR pt.is_active)
		ORDER BY pt.full_name, pt.id, pts.specialty
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, onlyActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// 由于使用了 LEFT JOIN，同一个技术员会出现在多行中，这里需要保持查询结果的顺序
	technicians := []*domain.Technician{}
	techniciansMap := make(map[int64]*domain.Technician)

	for rows.Next() {
		var t domain.Technician
		var specialty sql.NullString

		dst := []any{
			&t.ID,
			&t.FullName,
			&t.Email,
			&t.Color,
			&t.IsActive,
			&t.CreatedAt,
			&t.Version,
			&specialty,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		technician, exists := techniciansMap[t.ID]
		if !exists {
			technician = &t
			technician.Specialties = make([]string, 0)
			techniciansMap[t.ID] = technician
			technicians = append(technicians, technician)
		}

		if specialty.Valid {
			technician.Specialties = append(technician.Specialties, specialty.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return technicians, nil
}

// GetActiveTechnicians 获取所有在职的技术员，按姓名排序
func (r *Repository) GetActiveTechnicians() ([]*domain.Technician, error) {
	return r.getTechnicians(true)
}

func (r *Repository) GetAllTechnicians() ([]*domain.Technician, error) {
	return r.getTechnicians(false)
}

func (r *Repository) GetTechnicianByID(id int64) (*domain.Technician, error) {
	query := `
		SELECT
			pt.full_name,
			pt.email,
			pt.color,
			pt.is_active,
			pt.created_at,
			pt.version,
			pts.specialty
		FROM planning_technicians pt
		LEFT JOIN planning_technician_specialties pts ON pt.id = pts.technician_id
		WHERE pt.id = $1
		ORDER BY pts.specialty
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var technician *domain.Technician
	for rows.Next() {
		t := &domain.Technician{ID: id, Specialties: make([]string, 0)}
		var specialty sql.NullString

		dst := []any{&t.FullName, &t.Email, &t.Color, &t.IsActive, &t.CreatedAt, &t.Version, &specialty}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if technician == nil {
			technician = t
		}
		if specialty.Valid {
			technician.Specialties = append(technician.Specialties, specialty.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 没有查到任何行说明技术员不存在
	if technician == nil {
		return nil, sql.ErrNoRows
	}

	return technician, nil
}

func insertSpecialties(ctx context.Context, tx *sql.Tx, technicianID int64, specialties []string) error {
	for _, specialty := range specialties {
		query := `
			INSERT INTO planning_technician_specialties (technician_id, specialty)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`
		if _, err := tx.ExecContext(ctx, query, technicianID, specialty); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) CreateTechnician(t *domain.Technician) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO planning_technicians (full_name, email, color, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	if err := tx.QueryRowContext(ctx, query, t.FullName, t.Email, t.Color, t.IsActive).Scan(&t.ID, &t.CreatedAt, &t.Version); err != nil {
		return err
	}

	if err := insertSpecialties(ctx, tx, t.ID, t.Specialties); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// UpdateTechnician 更新技术员信息，专长列表整体替换
func (r *Repository) UpdateTechnician(t *domain.Technician) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE planning_technicians
		SET
			full_name = $1,
			email = $2,
			color = $3,
			is_active = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	params := []any{t.FullName, t.Email, t.Color, t.IsActive, t.ID, t.Version}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&t.Version); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM planning_technician_specialties WHERE technician_id = $1`, t.ID); err != nil {
		return err
	}

	if err := insertSpecialties(ctx, tx, t.ID, t.Specialties); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}
