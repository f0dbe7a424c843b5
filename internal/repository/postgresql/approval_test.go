package postgresql

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/approval"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approvalRowColumns = []string{"id", "type", "title", "description", "priority", "payload", "status",
	"requester_id", "requester_name", "requester_department", "requester_sector_id",
	"approver_id", "approver_name", "comments", "processed_by", "processed_by_name",
	"deadline", "created_at", "updated_at", "approved_at", "rejected_at", "changes_requested_at", "cancelled_at"}

var created = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func pendingRow(rows *pgxmock.Rows, id string) *pgxmock.Rows {
	var noTime *time.Time
	var noString *string
	return rows.AddRow(
		id, "overtime", "Deploy window", "", "high", []byte(`{"date":"2024-03-01","hours":2}`), "pending",
		"u-9", "Ana", "IT", ptr("5"),
		ptr("u-2"), ptr("Maria"), noString, noString, noString,
		created.Add(24*time.Hour), created, created, noTime, noTime, noTime, noTime,
	)
}

func TestApprovalRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	req := approval.Request{
		ID:                  "req-1",
		Type:                approval.TypeOvertime,
		Title:               "Deploy window",
		Priority:            approval.PriorityHigh,
		Payload:             approval.Payload{"hours": 2.0},
		Status:              approval.StatusPending,
		RequesterID:         "u-9",
		RequesterName:       "Ana",
		RequesterDepartment: "IT",
		Deadline:            created.Add(24 * time.Hour),
		CreatedAt:           created,
		UpdatedAt:           created,
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO approval_requests")).
		WithArgs("req-1", "overtime", "Deploy window", "", "high", []byte(`{"hours":2}`), "pending",
			"u-9", "Ana", "IT", (*string)(nil), (*string)(nil), (*string)(nil), req.Deadline, created, created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewApprovalRepository(mock).Create(context.Background(), req))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM approval_requests WHERE id = $1")).
		WithArgs("req-1").
		WillReturnRows(pendingRow(pgxmock.NewRows(approvalRowColumns), "req-1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM approval_requests WHERE id = $1")).
		WithArgs("req-404").
		WillReturnError(pgx.ErrNoRows)

	repo := NewApprovalRepository(mock)

	req, err := repo.GetByID(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPending, req.Status)
	assert.Equal(t, approval.PriorityHigh, req.Priority)
	assert.True(t, req.AssignedTo("u-2"))
	hours, ok := req.Payload.Number("hours")
	assert.True(t, ok)
	assert.Equal(t, 2.0, hours)
	assert.Nil(t, req.ApprovedAt)

	_, err = repo.GetByID(context.Background(), "req-404")
	assert.ErrorIs(t, err, approval.ErrRequestNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	status := approval.StatusPending
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM approval_requests WHERE 1=1 AND requester_id = $1 AND status = $2")).
		WithArgs("u-9", "pending").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4")).
		WithArgs("u-9", "pending", 10, 0).
		WillReturnRows(pendingRow(pgxmock.NewRows(approvalRowColumns), "req-1"))

	requests, total, err := NewApprovalRepository(mock).List(context.Background(), approval.ListFilter{
		RequesterID: ptr("u-9"),
		Status:      &status,
		Page:        1,
		Limit:       10,
	})

	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, requests, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func approvedUpdate() approval.Request {
	now := created.Add(time.Hour)
	return approval.Request{
		ID:              "req-1",
		Status:          approval.StatusApproved,
		ProcessedBy:     ptr("u-2"),
		ProcessedByName: ptr("Maria"),
		UpdatedAt:       now,
		ApprovedAt:      &now,
	}
}

func expectCAS(mock pgxmock.PgxPoolIface, u approval.Request, affected int64) {
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $10 AND status = $11")).
		WithArgs("approved", (*string)(nil), u.ProcessedBy, u.ProcessedByName, u.UpdatedAt,
			u.ApprovedAt, (*time.Time)(nil), (*time.Time)(nil), (*time.Time)(nil), "req-1", "pending").
		WillReturnResult(pgxmock.NewResult("UPDATE", affected))
}

func TestApprovalRepository_CompareAndSwap(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	u := approvedUpdate()
	expectCAS(mock, u, 1)

	require.NoError(t, NewApprovalRepository(mock).CompareAndSwap(context.Background(), approval.StatusPending, u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepository_CompareAndSwap_Conflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	u := approvedUpdate()
	expectCAS(mock, u, 0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM approval_requests WHERE id = $1")).
		WithArgs("req-1").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("rejected"))

	err = NewApprovalRepository(mock).CompareAndSwap(context.Background(), approval.StatusPending, u)

	var conflict *approval.StateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, approval.StatusRejected, conflict.Status)
	assert.ErrorIs(t, err, approval.ErrNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepository_CompareAndSwap_Missing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	u := approvedUpdate()
	expectCAS(mock, u, 0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM approval_requests")).
		WithArgs("req-1").
		WillReturnError(pgx.ErrNoRows)

	err = NewApprovalRepository(mock).CompareAndSwap(context.Background(), approval.StatusPending, u)

	assert.ErrorIs(t, err, approval.ErrRequestNotFound)
}

func TestApprovalRepository_ListOverdue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := created.Add(48 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'pending' AND deadline < $1")).
		WithArgs(now).
		WillReturnRows(pendingRow(pgxmock.NewRows(approvalRowColumns), "req-1"))

	overdue, err := NewApprovalRepository(mock).ListOverdue(context.Background(), now)

	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.True(t, overdue[0].IsOverdue(now))
}
