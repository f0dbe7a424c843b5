package point

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/validator"
)

const maxHistoryLimit = 100

type RegisterEntryRequest struct {
	Kind     string `json:"kind"`
	Location string `json:"location"`
	SourceIP string `json:"-"`
}

func (r *RegisterEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Kind) {
		errs = append(errs, validator.ValidationError{
			Field:   "kind",
			Message: "kind is required",
		})
	} else if !EntryKind(r.Kind).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "kind",
			Message: "kind must be one of clock_in, lunch_out, lunch_in, clock_out",
		})
	}

	if validator.Length(r.Location) > 255 {
		errs = append(errs, validator.ValidationError{
			Field:   "location",
			Message: "location must not exceed 255 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// HistoryRequest is the query string of the history endpoints.
type HistoryRequest struct {
	StartDate string
	EndDate   string
	Page      int
	Limit     int
}

type HistoryFilter struct {
	EmployeeID string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	Limit      int
}

func (r *HistoryRequest) Validate() error {
	var errs validator.ValidationErrors

	var start, end time.Time
	var hasStart, hasEnd bool
	if r.StartDate != "" {
		if start, hasStart = validator.IsValidDate(r.StartDate); !hasStart {
			errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be YYYY-MM-DD"})
		}
	}
	if r.EndDate != "" {
		if end, hasEnd = validator.IsValidDate(r.EndDate); !hasEnd {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be YYYY-MM-DD"})
		}
	}
	if hasStart && hasEnd && end.Before(start) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must not be before start_date"})
	}

	if r.Page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be positive"})
	}
	if r.Limit < 0 || r.Limit > maxHistoryLimit {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit)})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToFilter converts a validated request, interpreting dates in loc.
func (r *HistoryRequest) ToFilter(employeeID string, loc *time.Location) HistoryFilter {
	if loc == nil {
		loc = time.UTC
	}
	f := HistoryFilter{EmployeeID: employeeID, Page: r.Page, Limit: r.Limit}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 30
	}
	if t, err := time.ParseInLocation("2006-01-02", r.StartDate, loc); err == nil {
		f.StartDate = &t
	}
	if t, err := time.ParseInLocation("2006-01-02", r.EndDate, loc); err == nil {
		f.EndDate = &t
	}
	return f
}

type EntryResponse struct {
	Kind      string `json:"kind"`
	Timestamp string `json:"timestamp"`
	Location  string `json:"location"`
	SourceIP  string `json:"source_ip,omitempty"`
}

type RecordResponse struct {
	ID                 string          `json:"id"`
	EmployeeID         string          `json:"employee_id"`
	Date               string          `json:"date"`
	Entries            []EntryResponse `json:"entries"`
	TotalWorked        string          `json:"total_worked"`
	TotalWorkedMinutes int64           `json:"total_worked_minutes"`
	Expected           string          `json:"expected"`
	Overtime           string          `json:"overtime"`
	OvertimeMinutes    int64           `json:"overtime_minutes"`
	Status             string          `json:"status"`
}

type SessionResponse struct {
	Kind           string `json:"kind"`
	StartedAt      string `json:"started_at"`
	Elapsed        string `json:"elapsed"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
}

type StatusResponse struct {
	Record           *RecordResponse  `json:"record"`
	NextExpectedKind *string          `json:"next_expected_kind"`
	DayComplete      bool             `json:"day_complete"`
	CurrentSession   *SessionResponse `json:"current_session"`
}

type SummaryResponse struct {
	TotalRecords       int    `json:"total_records"`
	CompleteRecords    int    `json:"complete_records"`
	IncompleteRecords  int    `json:"incomplete_records"`
	TotalWorked        string `json:"total_worked"`
	TotalWorkedMinutes int64  `json:"total_worked_minutes"`
}

type HistoryResponse struct {
	Records    []RecordResponse `json:"records"`
	Summary    SummaryResponse  `json:"summary"`
	Page       int              `json:"-"`
	Limit      int              `json:"-"`
	TotalItems int64            `json:"-"`
}

func NewRecordResponse(r Record) RecordResponse {
	entries := make([]EntryResponse, 0, len(r.Entries))
	for _, e := range r.Entries {
		entries = append(entries, EntryResponse{
			Kind:      string(e.Kind),
			Timestamp: e.Timestamp.Format(time.RFC3339),
			Location:  e.Location,
			SourceIP:  e.SourceIP,
		})
	}
	return RecordResponse{
		ID:                 r.ID,
		EmployeeID:         r.EmployeeID,
		Date:               r.Date.Format("2006-01-02"),
		Entries:            entries,
		TotalWorked:        FormatDuration(r.TotalWorked),
		TotalWorkedMinutes: int64(r.TotalWorked / time.Minute),
		Expected:           FormatDuration(r.Expected),
		Overtime:           FormatDuration(r.Overtime),
		OvertimeMinutes:    int64(r.Overtime / time.Minute),
		Status:             string(r.Status),
	}
}

// NewSummary aggregates the records of a history range.
func NewSummary(records []Record) SummaryResponse {
	var s SummaryResponse
	var total time.Duration
	for _, r := range records {
		s.TotalRecords++
		if r.Status == StatusComplete {
			s.CompleteRecords++
		} else {
			s.IncompleteRecords++
		}
		total += r.TotalWorked
	}
	s.TotalWorked = FormatDuration(total)
	s.TotalWorkedMinutes = int64(total / time.Minute)
	return s
}

// FormatDuration renders d as HH:MM:SS. Hours may exceed 24.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
