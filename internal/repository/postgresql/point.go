package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/point"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type pointRepositoryImpl struct {
	db database.Querier
}

func NewPointRepository(db database.Querier) point.PointRepository {
	return &pointRepositoryImpl{db: db}
}

const pointColumns = `id, employee_id, work_date, entries, total_worked_seconds, expected_seconds,
		overtime_seconds, status, version, created_at, updated_at`

// GetByEmployeeDate implements point.PointRepository.
func (r *pointRepositoryImpl) GetByEmployeeDate(ctx context.Context, employeeID string, date time.Time) (point.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + pointColumns + ` FROM point_records WHERE employee_id = $1 AND work_date = $2`

	rec, err := scanPointRecord(q.QueryRow(ctx, query, employeeID, date.Format(time.DateOnly)))
	if errors.Is(err, pgx.ErrNoRows) {
		return point.Record{}, point.ErrRecordNotFound
	}
	if err != nil {
		return point.Record{}, fmt.Errorf("get point record: %w", err)
	}
	return rec, nil
}

// Save implements point.PointRepository.
func (r *pointRepositoryImpl) Save(ctx context.Context, record point.Record, expectedVersion int) error {
	q := GetQuerier(ctx, r.db)

	entries, err := json.Marshal(record.Entries)
	if err != nil {
		return fmt.Errorf("marshal point entries: %w", err)
	}

	if expectedVersion == 0 {
		query := `
			INSERT INTO point_records (
				id, employee_id, work_date, entries, total_worked_seconds, expected_seconds,
				overtime_seconds, status, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9, $10)
			ON CONFLICT (employee_id, work_date) DO NOTHING
		`
		tag, err := q.Exec(ctx, query,
			record.ID,
			record.EmployeeID,
			record.Date.Format(time.DateOnly),
			entries,
			seconds(record.TotalWorked),
			seconds(record.Expected),
			seconds(record.Overtime),
			string(record.Status),
			record.CreatedAt,
			record.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert point record: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return point.ErrVersionConflict
		}
		return nil
	}

	query := `
		UPDATE point_records
		SET entries = $1, total_worked_seconds = $2, expected_seconds = $3, overtime_seconds = $4,
			status = $5, version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8
	`
	tag, err := q.Exec(ctx, query,
		entries,
		seconds(record.TotalWorked),
		seconds(record.Expected),
		seconds(record.Overtime),
		string(record.Status),
		record.UpdatedAt,
		record.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update point record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return point.ErrVersionConflict
	}
	return nil
}

// ListByEmployee implements point.PointRepository.
func (r *pointRepositoryImpl) ListByEmployee(ctx context.Context, filter point.HistoryFilter) ([]point.Record, int64, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "WHERE employee_id = $1"
	args := []any{filter.EmployeeID}
	argIndex := 2

	if filter.StartDate != nil {
		whereClause += fmt.Sprintf(" AND work_date >= $%d", argIndex)
		args = append(args, filter.StartDate.Format(time.DateOnly))
		argIndex++
	}
	if filter.EndDate != nil {
		whereClause += fmt.Sprintf(" AND work_date <= $%d", argIndex)
		args = append(args, filter.EndDate.Format(time.DateOnly))
		argIndex++
	}

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM point_records %s`, whereClause)
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count point records: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM point_records %s ORDER BY work_date DESC`, pointColumns, whereClause)
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, filter.Limit, (page-1)*filter.Limit)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list point records: %w", err)
	}
	defer rows.Close()

	var records []point.Record
	for rows.Next() {
		rec, err := scanPointRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan point record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func scanPointRecord(row pgx.Row) (point.Record, error) {
	var (
		rec                        point.Record
		entries                    []byte
		worked, expected, overtime int64
		status                     string
	)
	err := row.Scan(
		&rec.ID,
		&rec.EmployeeID,
		&rec.Date,
		&entries,
		&worked,
		&expected,
		&overtime,
		&status,
		&rec.Version,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return point.Record{}, err
	}
	if err := json.Unmarshal(entries, &rec.Entries); err != nil {
		return point.Record{}, fmt.Errorf("unmarshal point entries: %w", err)
	}
	rec.TotalWorked = time.Duration(worked) * time.Second
	rec.Expected = time.Duration(expected) * time.Second
	rec.Overtime = time.Duration(overtime) * time.Second
	rec.Status = point.Status(status)
	return rec, nil
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
