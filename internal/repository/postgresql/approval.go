package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type approvalRepositoryImpl struct {
	db database.Querier
}

func NewApprovalRepository(db database.Querier) approval.ApprovalRepository {
	return &approvalRepositoryImpl{db: db}
}

const approvalColumns = `id, type, title, description, priority, payload, status,
		requester_id, requester_name, requester_department, requester_sector_id,
		approver_id, approver_name, comments, processed_by, processed_by_name,
		deadline, created_at, updated_at, approved_at, rejected_at, changes_requested_at, cancelled_at`

// Create implements approval.ApprovalRepository.
func (r *approvalRepositoryImpl) Create(ctx context.Context, req approval.Request) error {
	q := GetQuerier(ctx, r.db)

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return fmt.Errorf("marshal approval payload: %w", err)
	}

	query := `
		INSERT INTO approval_requests (
			id, type, title, description, priority, payload, status,
			requester_id, requester_name, requester_department, requester_sector_id,
			approver_id, approver_name, deadline, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = q.Exec(ctx, query,
		req.ID,
		string(req.Type),
		req.Title,
		req.Description,
		string(req.Priority),
		payload,
		string(req.Status),
		req.RequesterID,
		req.RequesterName,
		req.RequesterDepartment,
		req.RequesterSectorID,
		req.ApproverID,
		req.ApproverName,
		req.Deadline,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert approval request: %w", err)
	}
	return nil
}

// GetByID implements approval.ApprovalRepository.
func (r *approvalRepositoryImpl) GetByID(ctx context.Context, id string) (approval.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE id = $1`

	req, err := scanApproval(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return approval.Request{}, approval.ErrRequestNotFound
	}
	if err != nil {
		return approval.Request{}, fmt.Errorf("get approval request: %w", err)
	}
	return req, nil
}

// List implements approval.ApprovalRepository.
func (r *approvalRepositoryImpl) List(ctx context.Context, filter approval.ListFilter) ([]approval.Request, int64, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "WHERE 1=1"
	args := []any{}
	argIndex := 1

	if filter.RequesterID != nil {
		whereClause += fmt.Sprintf(" AND requester_id = $%d", argIndex)
		args = append(args, *filter.RequesterID)
		argIndex++
	}
	if filter.ApproverID != nil {
		whereClause += fmt.Sprintf(" AND approver_id = $%d", argIndex)
		args = append(args, *filter.ApproverID)
		argIndex++
	}
	if filter.Status != nil {
		whereClause += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, string(*filter.Status))
		argIndex++
	}
	if filter.Type != nil {
		whereClause += fmt.Sprintf(" AND type = $%d", argIndex)
		args = append(args, string(*filter.Type))
		argIndex++
	}
	if filter.Priority != nil {
		whereClause += fmt.Sprintf(" AND priority = $%d", argIndex)
		args = append(args, string(*filter.Priority))
		argIndex++
	}

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM approval_requests %s`, whereClause)
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count approval requests: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM approval_requests %s ORDER BY created_at DESC, id DESC`, approvalColumns, whereClause)
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, filter.Limit, (page-1)*filter.Limit)
	}

	requests, err := r.query(ctx, q, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// CompareAndSwap implements approval.ApprovalRepository.
func (r *approvalRepositoryImpl) CompareAndSwap(ctx context.Context, expected approval.Status, updated approval.Request) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE approval_requests
		SET status = $1, comments = $2, processed_by = $3, processed_by_name = $4, updated_at = $5,
			approved_at = $6, rejected_at = $7, changes_requested_at = $8, cancelled_at = $9
		WHERE id = $10 AND status = $11
	`
	tag, err := q.Exec(ctx, query,
		string(updated.Status),
		updated.Comments,
		updated.ProcessedBy,
		updated.ProcessedByName,
		updated.UpdatedAt,
		updated.ApprovedAt,
		updated.RejectedAt,
		updated.ChangesRequestedAt,
		updated.CancelledAt,
		updated.ID,
		string(expected),
	)
	if err != nil {
		return fmt.Errorf("update approval request: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var status string
	err = q.QueryRow(ctx, `SELECT status FROM approval_requests WHERE id = $1`, updated.ID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return approval.ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("read approval status: %w", err)
	}
	return &approval.StateConflictError{RequestID: updated.ID, Status: approval.Status(status)}
}

// ListOverdue implements approval.ApprovalRepository.
func (r *approvalRepositoryImpl) ListOverdue(ctx context.Context, now time.Time) ([]approval.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + approvalColumns + `
		FROM approval_requests
		WHERE status = 'pending' AND deadline < $1
		ORDER BY deadline ASC`

	return r.query(ctx, q, query, now)
}

func (r *approvalRepositoryImpl) query(ctx context.Context, q database.Querier, query string, args ...any) ([]approval.Request, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query approval requests: %w", err)
	}
	defer rows.Close()

	var requests []approval.Request
	for rows.Next() {
		req, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("scan approval request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanApproval(row pgx.Row) (approval.Request, error) {
	var (
		req                       approval.Request
		reqType, priority, status string
		payload                   []byte
	)
	err := row.Scan(
		&req.ID,
		&reqType,
		&req.Title,
		&req.Description,
		&priority,
		&payload,
		&status,
		&req.RequesterID,
		&req.RequesterName,
		&req.RequesterDepartment,
		&req.RequesterSectorID,
		&req.ApproverID,
		&req.ApproverName,
		&req.Comments,
		&req.ProcessedBy,
		&req.ProcessedByName,
		&req.Deadline,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.ApprovedAt,
		&req.RejectedAt,
		&req.ChangesRequestedAt,
		&req.CancelledAt,
	)
	if err != nil {
		return approval.Request{}, err
	}
	if err := json.Unmarshal(payload, &req.Payload); err != nil {
		return approval.Request{}, fmt.Errorf("unmarshal approval payload: %w", err)
	}
	req.Type = approval.Type(reqType)
	req.Priority = approval.Priority(priority)
	req.Status = approval.Status(status)
	return req, nil
}
