package diag

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/locriacyber/ante/internal/surfacir"
)

// Report is the canonical structured diagnostic. Every builder in this
// package returns *Report, which can be wrapped as a ReportError so it
// survives a plain Go error chain.
type Report struct {
	Schema  string         `json:"schema"` // always "ante.diag/v1"
	Session string         `json:"session"`
	Code    string         `json:"code"` // TMI001, MON003, SMT002, ...
	Phase   string         `json:"phase"` // "infer", "mono", "refine"
	Message string         `json:"message"`
	Pos     *surfacir.Pos  `json:"pos,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Fix     *Fix           `json:"fix,omitempty"`
}

// ReportError wraps a Report as an error so a structured diagnostic
// survives errors.As() unwrapping through an ordinary fmt.Errorf chain.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a Report from an error chain, if one is present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps a Report as a ReportError for use as a Go error.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON renders a Report deterministically (data keys sorted) so two runs
// over the same input produce byte-identical diagnostics.
func (r *Report) ToJSON(compact bool) (string, error) {
	ordered := r.sortedData()
	payload := struct {
		Schema  string         `json:"schema"`
		Session string         `json:"session"`
		Code    string         `json:"code"`
		Phase   string         `json:"phase"`
		Message string         `json:"message"`
		Pos     *surfacir.Pos  `json:"pos,omitempty"`
		Data    map[string]any `json:"data,omitempty"`
		Fix     *Fix           `json:"fix,omitempty"`
	}{r.Schema, r.Session, r.Code, r.Phase, r.Message, r.Pos, ordered, r.Fix}

	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(payload)
	} else {
		data, err = json.MarshalIndent(payload, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// sortedData is a no-op beyond documenting the determinism guarantee;
// encoding/json already emits map keys in sorted order.
func (r *Report) sortedData() map[string]any {
	if r.Data == nil {
		return nil
	}
	keys := make([]string, 0, len(r.Data))
	for k := range r.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return r.Data
}

// New builds a Report for the given phase/code/message, with an optional
// source position and structured data.
func New(phase, code, message string, pos *surfacir.Pos, data map[string]any) *Report {
	return &Report{
		Schema:  "ante.diag/v1",
		Session: SessionID,
		Code:    code,
		Phase:   phase,
		Message: message,
		Pos:     pos,
		Data:    data,
	}
}

// WithFix attaches a suggested remediation to a Report.
func (r *Report) WithFix(suggestion string, confidence float64) *Report {
	r.Fix = &Fix{Suggestion: suggestion, Confidence: confidence}
	return r
}

// NewGeneric wraps an opaque error as a Report when no specific code
// applies, e.g. an I/O failure surfacing from cmd/antec.
func NewGeneric(phase string, err error) *Report {
	return &Report{
		Schema:  "ante.diag/v1",
		Session: SessionID,
		Code:    "GEN000",
		Phase:   phase,
		Message: err.Error(),
	}
}
