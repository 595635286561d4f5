package document

import (
	"io"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/govalid"
)

// Report is the serialized form of a validation result.
type Report struct {
	Valid      bool          `json:"valid" yaml:"valid"`
	Count      int           `json:"count" yaml:"count"`
	Violations []ReportEntry `json:"violations,omitempty" yaml:"violations,omitempty"`
}

// ReportEntry is one serialized violation.
type ReportEntry struct {
	Path    string         `json:"path" yaml:"path"`
	Code    string         `json:"code,omitempty" yaml:"code,omitempty"`
	Message string         `json:"message" yaml:"message"`
	Params  map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	Group   string         `json:"group,omitempty" yaml:"group,omitempty"`
}

// NewReport converts vl. Messages are taken as rendered; a violation without
// a rendered message falls back to its template.
func NewReport(vl govalid.ViolationList) Report {
	r := Report{Valid: len(vl) == 0, Count: len(vl)}
	for _, v := range vl {
		msg := v.Message
		if msg == "" {
			msg = v.Template
		}
		r.Violations = append(r.Violations, ReportEntry{
			Path:    v.Path,
			Code:    v.Code,
			Message: msg,
			Params:  v.Params.Map(),
			Group:   v.Group,
		})
	}
	return r
}

// WriteJSON writes the report of vl as indented JSON.
func WriteJSON(w io.Writer, vl govalid.ViolationList) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewReport(vl))
}

// WriteYAML writes the report of vl as YAML.
func WriteYAML(w io.Writer, vl govalid.ViolationList) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewReport(vl)); err != nil {
		return err
	}
	return enc.Close()
}
