package alert

import (
	"fmt"

	"github.com/ignite/quality-monitor/internal/domain"
	"github.com/osteele/liquid"
)

// Per-severity message templates. Kept as liquid sources so operators can
// swap them without touching dispatch logic.
const (
	criticalTemplate = "CRITICAL: Data quality check failed for {{ dataset }}. Success rate: {{ rate }}% ({{ successful }}/{{ total }})"
	warningTemplate  = "WARNING: Data quality issues detected in {{ dataset }}. Success rate: {{ rate }}% ({{ successful }}/{{ total }})"
	infoTemplate     = "SUCCESS: Data quality check passed for {{ dataset }}. Success rate: {{ rate }}%"
)

// MessageRenderer turns run outcomes into alert text using pre-parsed
// liquid templates.
type MessageRenderer struct {
	critical *liquid.Template
	warning  *liquid.Template
	info     *liquid.Template
}

// NewMessageRenderer parses the built-in templates. Parsing happens once
// at startup so a template error fails fast.
func NewMessageRenderer() (*MessageRenderer, error) {
	engine := liquid.NewEngine()
	r := &MessageRenderer{}
	var err error
	if r.critical, err = engine.ParseString(criticalTemplate); err != nil {
		return nil, fmt.Errorf("parse critical template: %w", err)
	}
	if r.warning, err = engine.ParseString(warningTemplate); err != nil {
		return nil, fmt.Errorf("parse warning template: %w", err)
	}
	if r.info, err = engine.ParseString(infoTemplate); err != nil {
		return nil, fmt.Errorf("parse info template: %w", err)
	}
	return r, nil
}

// Render produces the alert message for an outcome at the given severity.
func (r *MessageRenderer) Render(severity domain.Severity, o domain.RunOutcome) (string, error) {
	bindings := map[string]any{
		"dataset":    o.Dataset,
		"rate":       fmt.Sprintf("%.1f", o.SuccessRate),
		"successful": o.Successful,
		"total":      o.Total,
	}
	var tpl *liquid.Template
	switch severity {
	case domain.SeverityCritical:
		tpl = r.critical
	case domain.SeverityWarning:
		tpl = r.warning
	default:
		tpl = r.info
	}
	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("render %s message: %w", severity, err)
	}
	return out, nil
}
