package approval

import "github.com/cmlabs-hris/attendance-workflow/internal/domain/user"

// Template describes how a request type is validated and routed.
type Template struct {
	Type           Type     `yaml:"type"`
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Steps          []Step   `yaml:"steps"`
	RequiredFields []string `yaml:"required_fields"`
	Rules          Rules    `yaml:"rules"`
}

type Step struct {
	Order        int       `yaml:"order"`
	Role         user.Role `yaml:"role"`
	Required     bool      `yaml:"required"`
	TimeoutHours int       `yaml:"timeout_hours"`
}

// Rules are the optional numeric bounds of a template.
type Rules struct {
	MaxHours       *float64 `yaml:"max_hours"`
	MinDaysAdvance *int     `yaml:"min_days_advance"`
	MaxDaysBack    *int     `yaml:"max_days_back"`
}

// FirstStep returns the step with the lowest order.
func (t Template) FirstStep() (Step, bool) {
	if len(t.Steps) == 0 {
		return Step{}, false
	}
	first := t.Steps[0]
	for _, s := range t.Steps[1:] {
		if s.Order < first.Order {
			first = s
		}
	}
	return first, true
}
