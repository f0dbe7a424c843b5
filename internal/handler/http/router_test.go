package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/sector"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
	"github.com/cmlabs-hris/attendance-workflow/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-workflow/internal/repository/memory"
	approvalService "github.com/cmlabs-hris/attendance-workflow/internal/service/approval"
	pointService "github.com/cmlabs-hris/attendance-workflow/internal/service/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

var handlerTestNow = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

var (
	testAdmin      = user.User{ID: "u-admin", Name: "Admin", Role: user.RoleAdmin, Department: "Board", IsActive: true}
	testDirector   = user.User{ID: "u-director", Name: "Director", Role: user.RoleSupervisor, SectorID: strPtr("1"), Department: "Board", IsActive: true}
	testSupervisor = user.User{ID: "u-2", Name: "Maria", Role: user.RoleSupervisor, SectorID: strPtr("3"), Department: "IT", IsActive: true}
	testEmployee   = user.User{ID: "u-9", Name: "Ana", Role: user.RoleEmployee, SectorID: strPtr("5"), Department: "IT", IsActive: true}
	testInactive   = user.User{ID: "u-gone", Name: "Gone", Role: user.RoleEmployee, Department: "IT"}
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	jwt     jwt.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := memory.NewUserRepository(testAdmin, testDirector, testSupervisor, testEmployee, testInactive)
	sectors := memory.NewSectorRepository(
		sector.Sector{ID: "1", Name: "Directorate", SupervisorID: strPtr("u-director")},
		sector.Sector{ID: "3", Name: "IT", ParentID: strPtr("1"), SupervisorID: strPtr("u-2")},
		sector.Sector{ID: "5", Name: "Infrastructure", ParentID: strPtr("3")},
	)
	clk := clock.NewFixed(handlerTestNow)

	points := pointService.NewPointService(memory.NewPointRepository(), nil, clk, pointService.Config{
		DefaultLocation: "office",
		ExpectedDaily:   8 * time.Hour,
	}, nil)

	registry, err := approvalService.LoadRegistry("")
	require.NoError(t, err)
	resolver := approvalService.NewResolver(users, sectors, 10)
	approvals := approvalService.NewApprovalService(
		memory.NewApprovalRepository(),
		registry,
		resolver,
		approvalService.NewGuard(resolver, nil),
		nil,
		clk,
		nil,
	)

	jwtService := jwt.NewJWTService(handlerTestSecret, time.Hour)
	router := NewRouter(
		RouterOptions{AllowedOrigins: []string{"http://localhost:3000"}},
		jwtService,
		users,
		NewPointHandler(points, time.UTC),
		NewApprovalHandler(approvals, clk),
	)
	return &testServer{t: t, handler: router, jwt: jwtService}
}

func (s *testServer) do(u *user.User, method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if u != nil {
		token, _, err := s.jwt.GenerateAccessToken(u.ID, u.Role)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (response.Response, map[string]any) {
	t.Helper()
	var env response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	data, _ := env.Data.(map[string]any)
	return env, data
}

func TestRouter_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(nil, http.MethodGet, "/api/v1/points/today", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RejectsInactiveUser(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(&testInactive, http.MethodGet, "/api/v1/points/today", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_RejectsUnknownUser(t *testing.T) {
	srv := newTestServer(t)
	ghost := user.User{ID: "u-ghost", Role: user.RoleAdmin}

	rec := srv.do(&ghost, http.MethodGet, "/api/v1/points/today", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPointHandler_RegisterSequence(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(&testEmployee, http.MethodPost, "/api/v1/points", map[string]string{"kind": "clock_in"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env, data := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "incomplete", data["status"])
	entries := data["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "office", entries[0].(map[string]any)["location"])
	assert.Equal(t, "192.0.2.1", entries[0].(map[string]any)["source_ip"])

	rec = srv.do(&testEmployee, http.MethodPost, "/api/v1/points", map[string]string{"kind": "clock_in"})
	require.Equal(t, http.StatusConflict, rec.Code)
	env, _ = decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)
	assert.Equal(t, "lunch_out", env.Error.Details["expected_kind"])
	assert.Equal(t, "clock_in", env.Error.Details["got_kind"])
}

func TestPointHandler_RegisterValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(&testEmployee, http.MethodPost, "/api/v1/points", map[string]string{"kind": "coffee_break"})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env, _ := decodeEnvelope(t, rec)
	assert.Contains(t, env.Error.Details, "kind")
}

func TestPointHandler_RegisterMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	token, _, err := srv.jwt.GenerateAccessToken(testEmployee.ID, testEmployee.Role)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/points", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPointHandler_StatusAndToday(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(&testEmployee, http.MethodGet, "/api/v1/points/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env, _ := decodeEnvelope(t, rec)
	assert.Nil(t, env.Data)

	srv.do(&testEmployee, http.MethodPost, "/api/v1/points", map[string]string{"kind": "clock_in", "location": "home"})

	rec = srv.do(&testEmployee, http.MethodGet, "/api/v1/points/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, data := decodeEnvelope(t, rec)
	assert.Equal(t, "lunch_out", data["next_expected_kind"])
	assert.Equal(t, false, data["day_complete"])
}

func TestPointHandler_GetByDate(t *testing.T) {
	srv := newTestServer(t)
	srv.do(&testEmployee, http.MethodPost, "/api/v1/points", map[string]string{"kind": "clock_in"})

	rec := srv.do(&testEmployee, http.MethodGet, "/api/v1/points/date/2024-03-04", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(&testEmployee, http.MethodGet, "/api/v1/points/date/2024-03-05", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(&testEmployee, http.MethodGet, "/api/v1/points/date/yesterday", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPointHandler_UserHistoryRequiresViewAll(t *testing.T) {
	srv := newTestServer(t)
	srv.do(&testEmployee, http.MethodPost, "/api/v1/points", map[string]string{"kind": "clock_in"})

	rec := srv.do(&testEmployee, http.MethodGet, "/api/v1/points/users/u-2/history", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(&testSupervisor, http.MethodGet, "/api/v1/points/users/u-9/history?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env, data := decodeEnvelope(t, rec)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 1, env.Meta.Page)
	assert.Equal(t, 5, env.Meta.Limit)
	assert.Equal(t, int64(1), env.Meta.TotalItems)
	assert.Equal(t, 1, env.Meta.TotalPages)
	assert.Len(t, data["records"], 1)
}

func TestPointHandler_HistoryBadQuery(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(&testEmployee, http.MethodGet, "/api/v1/points/history?page=abc", nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env, _ := decodeEnvelope(t, rec)
	assert.Contains(t, env.Error.Details, "page")
}

func TestPointHandler_ExportHistory(t *testing.T) {
	srv := newTestServer(t)
	srv.do(&testEmployee, http.MethodPost, "/api/v1/points", map[string]string{"kind": "clock_in"})

	rec := srv.do(&testEmployee, http.MethodGet, "/api/v1/points/history/export", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "points-u-9.xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func overtimeBody() map[string]any {
	return map[string]any{
		"type":     "overtime",
		"title":    "Deploy window",
		"priority": "high",
		"data": map[string]any{
			"date":       "2024-03-01",
			"start_time": "18:00",
			"end_time":   "20:00",
			"hours":      2,
		},
	}
}

func TestApprovalHandler_Lifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(&testEmployee, http.MethodPost, "/api/v1/approvals", overtimeBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	_, data := decodeEnvelope(t, rec)
	id := data["id"].(string)
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "u-2", data["approver_id"])
	assert.Equal(t, "2024-03-05T08:00:00Z", data["deadline"])

	// Employees lack approval.manage.
	rec = srv.do(&testEmployee, http.MethodPut, "/api/v1/approvals/"+id+"/action", map[string]string{"action": "approve"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(&testSupervisor, http.MethodPut, "/api/v1/approvals/"+id+"/action", map[string]string{"action": "approve", "comments": "ok"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, data = decodeEnvelope(t, rec)
	assert.Equal(t, "approved", data["status"])
	assert.Equal(t, "u-2", data["processed_by"])

	rec = srv.do(&testDirector, http.MethodPut, "/api/v1/approvals/"+id+"/action", map[string]string{"action": "reject"})
	require.Equal(t, http.StatusConflict, rec.Code)
	env, _ := decodeEnvelope(t, rec)
	assert.Equal(t, "approved", env.Error.Details["status"])

	rec = srv.do(&testEmployee, http.MethodDelete, "/api/v1/approvals/"+id, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestApprovalHandler_CreateValidation(t *testing.T) {
	srv := newTestServer(t)
	body := overtimeBody()
	body["data"].(map[string]any)["hours"] = 12

	rec := srv.do(&testEmployee, http.MethodPost, "/api/v1/approvals", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env, _ := decodeEnvelope(t, rec)
	assert.Contains(t, env.Error.Details, "hours")

	body = overtimeBody()
	body["type"] = "sabbatical"
	rec = srv.do(&testEmployee, http.MethodPost, "/api/v1/approvals", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApprovalHandler_GetVisibility(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(&testSupervisor, http.MethodPost, "/api/v1/approvals", overtimeBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	_, data := decodeEnvelope(t, rec)
	id := data["id"].(string)

	assert.Equal(t, http.StatusOK, srv.do(&testSupervisor, http.MethodGet, "/api/v1/approvals/"+id, nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(&testDirector, http.MethodGet, "/api/v1/approvals/"+id, nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(&testAdmin, http.MethodGet, "/api/v1/approvals/"+id, nil).Code)
	assert.Equal(t, http.StatusForbidden, srv.do(&testEmployee, http.MethodGet, "/api/v1/approvals/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(&testAdmin, http.MethodGet, "/api/v1/approvals/missing", nil).Code)
}

func TestApprovalHandler_ListAndDashboard(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, srv.do(&testEmployee, http.MethodPost, "/api/v1/approvals", overtimeBody()).Code)

	rec := srv.do(&testEmployee, http.MethodGet, "/api/v1/approvals?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env, _ := decodeEnvelope(t, rec)
	assert.Len(t, env.Data, 1)
	assert.Equal(t, int64(1), env.Meta.TotalItems)

	rec = srv.do(&testEmployee, http.MethodGet, "/api/v1/approvals?status=archived", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = srv.do(&testEmployee, http.MethodGet, "/api/v1/approvals/dashboard", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(&testSupervisor, http.MethodGet, "/api/v1/approvals/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, data := decodeEnvelope(t, rec)
	stats := data["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["pending"])
	assert.Len(t, data["my_pending"], 1)
}

func TestApprovalHandler_TemplatesAndApprovers(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(&testEmployee, http.MethodGet, "/api/v1/approvals/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env, _ := decodeEnvelope(t, rec)
	assert.Len(t, env.Data, 3)

	rec = srv.do(&testEmployee, http.MethodGet, "/api/v1/approvals/approvers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, data := decodeEnvelope(t, rec)
	assert.NotEmpty(t, data["approvers"])
}
