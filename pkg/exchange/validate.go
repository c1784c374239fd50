package exchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/quicknote/pkg/core"
)

// Reasons a record is rejected.
var (
	ErrNotRecord   = errors.New("not a record")
	ErrEmptyRecord = errors.New("record has neither title nor content")
)

// Rejection describes an imported record that was not accepted.
type Rejection struct {
	Index  int
	Reason error
}

func (r Rejection) Error() string {
	return fmt.Sprintf("record %d: %v", r.Index, r.Reason)
}

// Report is the outcome of decoding an import file.
type Report struct {
	Notes    []core.Note
	Rejected []Rejection
}

// Classify validates one loosely-shaped record and converts it to a note.
//
// A record is valid when it is a mapping with a non-empty title or content.
// id, tags, createdAt and updatedAt are optional; values of the wrong type
// are ignored rather than failing the record. A missing id is left empty
// for the merger to assign.
func Classify(record any) (core.Note, error) {
	m, ok := asMap(record)
	if !ok {
		return core.Note{}, ErrNotRecord
	}

	title := strings.TrimSpace(stringField(m["title"]))
	content := strings.TrimSpace(stringField(m["content"]))
	if title == "" && content == "" {
		return core.Note{}, ErrEmptyRecord
	}

	return core.Note{
		ID:        strings.TrimSpace(stringField(m["id"])),
		Title:     title,
		Content:   content,
		Tags:      tagsField(m["tags"]),
		CreatedAt: timeField(m["createdAt"]),
		UpdatedAt: timeField(m["updatedAt"]),
	}, nil
}

// classifyAll runs Classify over records and collects the outcome.
func classifyAll(records []any) Report {
	var r Report
	for i, rec := range records {
		n, err := Classify(rec)
		if err != nil {
			r.Rejected = append(r.Rejected, Rejection{Index: i, Reason: err})
			continue
		}
		r.Notes = append(r.Notes, n)
	}
	return r
}

// extractRecords accepts either {notes: [...]} or a bare sequence.
func extractRecords(doc any) ([]any, error) {
	if m, ok := asMap(doc); ok {
		doc = m["notes"]
	}
	records, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list of notes", core.ErrInvalidImport)
	}
	return records, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func stringField(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	}
	return ""
}

// tagsField accepts a list of strings, a JSON-encoded list or a comma-separated string.
func tagsField(v any) []string {
	var raw []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = t
	case string:
		trimmed := strings.TrimSpace(t)
		if strings.HasPrefix(trimmed, "[") {
			var list []string
			if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
				raw = list
				break
			}
		}
		raw = strings.Split(t, ",")
	}

	tags := core.ParseTags(strings.Join(raw, ","), nil)
	if tags == nil {
		return []string{}
	}
	return tags
}

func timeField(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return core.Timestamp(t)
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(t))
		if err == nil {
			return core.Timestamp(parsed)
		}
	}
	return time.Time{}
}
