package approval

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/validator"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

type templateFile struct {
	Templates []approval.Template `yaml:"templates"`
}

// Registry maps request types to their templates. It is immutable once built.
type Registry struct {
	templates map[approval.Type]approval.Template
	order     []approval.Type
}

// LoadRegistry reads templates from path, or the built-in set when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(defaultTemplates)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates %s: %w", path, err)
	}
	return NewRegistry(data)
}

func NewRegistry(data []byte) (*Registry, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	r := &Registry{templates: make(map[approval.Type]approval.Template, len(file.Templates))}
	for _, t := range file.Templates {
		if t.Type == "" {
			return nil, fmt.Errorf("template without type")
		}
		if _, dup := r.templates[t.Type]; dup {
			return nil, fmt.Errorf("duplicate template %q", t.Type)
		}
		if len(t.Steps) == 0 {
			return nil, fmt.Errorf("template %q has no steps", t.Type)
		}
		for _, s := range t.Steps {
			if s.TimeoutHours <= 0 {
				return nil, fmt.Errorf("template %q step %d: timeout_hours must be positive", t.Type, s.Order)
			}
			if !s.Role.Valid() {
				return nil, fmt.Errorf("template %q step %d: unknown role %q", t.Type, s.Order, s.Role)
			}
		}
		sort.SliceStable(t.Steps, func(i, j int) bool { return t.Steps[i].Order < t.Steps[j].Order })
		r.templates[t.Type] = t
		r.order = append(r.order, t.Type)
	}
	return r, nil
}

func (r *Registry) Lookup(t approval.Type) (approval.Template, error) {
	tmpl, ok := r.templates[t]
	if !ok {
		return approval.Template{}, fmt.Errorf("%w: %s", approval.ErrTemplateNotFound, t)
	}
	return tmpl, nil
}

// List returns templates in file order.
func (r *Registry) List() []approval.Template {
	out := make([]approval.Template, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.templates[t])
	}
	return out
}

// Validate checks payload against the template of t and stops at the first
// violated rule.
func (r *Registry) Validate(t approval.Type, payload approval.Payload, now time.Time) error {
	tmpl, err := r.Lookup(t)
	if err != nil {
		return err
	}

	for _, field := range tmpl.RequiredFields {
		if !payload.Present(field) {
			return validator.Field(field, field+" is required")
		}
	}

	for _, field := range []string{"start_time", "end_time"} {
		if !payload.Present(field) {
			continue
		}
		s, _ := payload.String(field)
		if _, ok := validator.IsValidClockTime(s); !ok {
			return validator.Field(field, field+" must be HH:MM")
		}
	}

	rules := tmpl.Rules
	if rules.MaxHours != nil {
		hours, ok := payload.Number("hours")
		if !ok {
			return validator.Field("hours", "hours must be a number")
		}
		if hours <= 0 {
			return validator.Field("hours", "hours must be positive")
		}
		if hours > *rules.MaxHours {
			return validator.Field("hours", fmt.Sprintf("hours must not exceed %g", *rules.MaxHours))
		}
	}

	if rules.MinDaysAdvance != nil {
		start, ok := payloadDate(payload, "start_date")
		if !ok {
			return validator.Field("start_date", "start_date must be a valid date")
		}
		if daysBetween(now, start) < float64(*rules.MinDaysAdvance) {
			return validator.Field("start_date", fmt.Sprintf("start_date must be at least %d days in advance", *rules.MinDaysAdvance))
		}
		if end, ok := payloadDate(payload, "end_date"); ok && end.Before(start) {
			return validator.Field("end_date", "end_date must not be before start_date")
		}
	}

	if rules.MaxDaysBack != nil {
		date, ok := payloadDate(payload, "date")
		if !ok {
			return validator.Field("date", "date must be a valid date")
		}
		if daysBetween(date, now) > float64(*rules.MaxDaysBack) {
			return validator.Field("date", fmt.Sprintf("date must not be more than %d days in the past", *rules.MaxDaysBack))
		}
	}

	return nil
}

func payloadDate(p approval.Payload, key string) (time.Time, bool) {
	s, ok := p.String(key)
	if !ok {
		return time.Time{}, false
	}
	return validator.ParseDateOrDateTime(s)
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}
