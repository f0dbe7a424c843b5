package point

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/point"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/export"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/keylock"
	"github.com/google/uuid"
)

const maxSaveAttempts = 3

// Config holds ledger settings.
type Config struct {
	DefaultLocation string        // default: "office"
	ExpectedDaily   time.Duration // default: 8h
	AllowReentry    bool
	Location        *time.Location // default: UTC; decides which calendar day an entry belongs to
}

type PointServiceImpl struct {
	repo   point.PointRepository
	locks  *keylock.Map
	sink   audit.Sink
	clock  clock.Clock
	config Config
	logger *slog.Logger
}

var _ point.PointService = (*PointServiceImpl)(nil)

func NewPointService(repo point.PointRepository, sink audit.Sink, clk clock.Clock, cfg Config, logger *slog.Logger) *PointServiceImpl {
	if cfg.DefaultLocation == "" {
		cfg.DefaultLocation = "office"
	}
	if cfg.ExpectedDaily == 0 {
		cfg.ExpectedDaily = 8 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if sink == nil {
		sink = audit.Discard{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PointServiceImpl{
		repo:   repo,
		locks:  keylock.New(),
		sink:   sink,
		clock:  clk,
		config: cfg,
		logger: logger,
	}
}

// RegisterEntry appends an entry to today's record of employeeID, creating
// the record on the first entry of the day.
func (s *PointServiceImpl) RegisterEntry(ctx context.Context, employeeID string, req point.RegisterEntryRequest) (point.Record, error) {
	if err := req.Validate(); err != nil {
		return point.Record{}, err
	}

	for attempt := 1; ; attempt++ {
		record, err := s.tryRegister(ctx, employeeID, req)
		if !errors.Is(err, point.ErrVersionConflict) {
			return record, err
		}
		if attempt == maxSaveAttempts {
			return point.Record{}, fmt.Errorf("register point entry after %d attempts: %w", attempt, err)
		}
		s.logger.DebugContext(ctx, "point record changed concurrently, retrying",
			slog.String("employee_id", employeeID),
			slog.Int("attempt", attempt),
		)
	}
}

func (s *PointServiceImpl) tryRegister(ctx context.Context, employeeID string, req point.RegisterEntryRequest) (point.Record, error) {
	now := s.clock.Now()
	day := point.DayOf(now, s.config.Location)

	unlock := s.locks.Lock(employeeID + "|" + day.Format("2006-01-02"))
	defer unlock()

	record, err := s.repo.GetByEmployeeDate(ctx, employeeID, day)
	switch {
	case errors.Is(err, point.ErrRecordNotFound):
		id, err := uuid.NewV7()
		if err != nil {
			return point.Record{}, fmt.Errorf("generate record id: %w", err)
		}
		record = point.Record{
			ID:         id.String(),
			EmployeeID: employeeID,
			Date:       day,
			Expected:   s.config.ExpectedDaily,
			Status:     point.StatusIncomplete,
			CreatedAt:  now,
		}
	case err != nil:
		return point.Record{}, fmt.Errorf("load point record: %w", err)
	}

	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = s.config.DefaultLocation
	}
	entry := point.Entry{
		Kind:      point.EntryKind(req.Kind),
		Timestamp: now,
		Location:  location,
		SourceIP:  req.SourceIP,
	}

	expectedVersion := record.Version
	if err := record.Append(entry, s.config.AllowReentry); err != nil {
		return point.Record{}, err
	}
	record.UpdatedAt = now

	if err := s.repo.Save(ctx, record, expectedVersion); err != nil {
		if errors.Is(err, point.ErrVersionConflict) {
			return point.Record{}, err
		}
		return point.Record{}, fmt.Errorf("save point record: %w", err)
	}
	record.Version = expectedVersion + 1

	s.sink.Publish(ctx, audit.Event{
		ID:         uuid.NewString(),
		Type:       audit.EventPointRegistered,
		ActorID:    employeeID,
		Resource:   "point_record",
		ResourceID: record.ID,
		Details: map[string]any{
			"kind":     string(entry.Kind),
			"date":     day.Format("2006-01-02"),
			"location": entry.Location,
			"status":   string(record.Status),
		},
		OccurredAt: now,
	})

	return record, nil
}

// GetStatus reports today's record, the next expected kind and the open session.
func (s *PointServiceImpl) GetStatus(ctx context.Context, employeeID string) (point.StatusResponse, error) {
	now := s.clock.Now()
	record, err := s.Today(ctx, employeeID)
	if err != nil {
		return point.StatusResponse{}, err
	}

	var current point.Record
	if record != nil {
		current = *record
	}

	var resp point.StatusResponse
	if kind, ok := current.ExpectedKind(s.config.AllowReentry); ok {
		k := string(kind)
		resp.NextExpectedKind = &k
	}
	resp.DayComplete = current.Status == point.StatusComplete

	if record != nil {
		rr := point.NewRecordResponse(*record)
		resp.Record = &rr
		if entry, elapsed, ok := record.OpenSession(now); ok {
			resp.CurrentSession = &point.SessionResponse{
				Kind:           string(entry.Kind),
				StartedAt:      entry.Timestamp.Format(time.RFC3339),
				Elapsed:        point.FormatDuration(elapsed),
				ElapsedSeconds: int64(elapsed / time.Second),
			}
		}
	}
	return resp, nil
}

// Today returns today's record or nil when nothing was registered yet.
func (s *PointServiceImpl) Today(ctx context.Context, employeeID string) (*point.Record, error) {
	day := point.DayOf(s.clock.Now(), s.config.Location)
	record, err := s.repo.GetByEmployeeDate(ctx, employeeID, day)
	if errors.Is(err, point.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load point record: %w", err)
	}
	return &record, nil
}

func (s *PointServiceImpl) GetRecord(ctx context.Context, employeeID string, date time.Time) (point.Record, error) {
	return s.repo.GetByEmployeeDate(ctx, employeeID, point.DayOf(date, s.config.Location))
}

// History pages through the records of employeeID, newest first. The summary
// covers the whole date range, not just the page.
func (s *PointServiceImpl) History(ctx context.Context, employeeID string, req point.HistoryRequest) (point.HistoryResponse, error) {
	if err := req.Validate(); err != nil {
		return point.HistoryResponse{}, err
	}
	filter := req.ToFilter(employeeID, s.config.Location)

	records, total, err := s.repo.ListByEmployee(ctx, filter)
	if err != nil {
		return point.HistoryResponse{}, fmt.Errorf("list point records: %w", err)
	}

	all := records
	if int64(len(records)) < total {
		rangeFilter := filter
		rangeFilter.Page, rangeFilter.Limit = 0, 0
		if all, _, err = s.repo.ListByEmployee(ctx, rangeFilter); err != nil {
			return point.HistoryResponse{}, fmt.Errorf("list point records: %w", err)
		}
	}

	out := make([]point.RecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, point.NewRecordResponse(r))
	}
	return point.HistoryResponse{
		Records:    out,
		Summary:    point.NewSummary(all),
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalItems: total,
	}, nil
}

var exportHeaders = []string{"Date", "Status", "Clock In", "Lunch Out", "Lunch In", "Clock Out", "Entries", "Worked", "Expected", "Overtime"}

// ExportHistory writes every record in the requested range as an XLSX workbook.
// Page and limit are ignored.
func (s *PointServiceImpl) ExportHistory(ctx context.Context, employeeID string, req point.HistoryRequest, w io.Writer) error {
	req.Page, req.Limit = 0, 0
	if err := req.Validate(); err != nil {
		return err
	}
	filter := req.ToFilter(employeeID, s.config.Location)
	filter.Page, filter.Limit = 0, 0

	records, _, err := s.repo.ListByEmployee(ctx, filter)
	if err != nil {
		return fmt.Errorf("list point records: %w", err)
	}

	rows := make([][]any, 0, len(records)+1)
	for _, r := range records {
		row := []any{r.Date.Format("2006-01-02"), string(r.Status)}
		for _, kind := range point.Cycle {
			row = append(row, firstTime(r.Entries, kind, s.config.Location))
		}
		row = append(row, len(r.Entries), point.FormatDuration(r.TotalWorked), point.FormatDuration(r.Expected), point.FormatDuration(r.Overtime))
		rows = append(rows, row)
	}
	summary := point.NewSummary(records)
	rows = append(rows, []any{"Total", "", "", "", "", "", summary.TotalRecords, summary.TotalWorked, "", ""})

	return export.WriteXLSX(w,
		export.Sheet{Name: "Points", Headers: exportHeaders, Rows: rows},
		export.Sheet{
			Name:    "Summary",
			Headers: []string{"Employee", "Records", "Complete", "Incomplete", "Worked"},
			Rows:    [][]any{{employeeID, summary.TotalRecords, summary.CompleteRecords, summary.IncompleteRecords, summary.TotalWorked}},
		},
	)
}

func firstTime(entries []point.Entry, kind point.EntryKind, loc *time.Location) string {
	for _, e := range entries {
		if e.Kind == kind {
			return e.Timestamp.In(loc).Format("15:04:05")
		}
	}
	return ""
}
