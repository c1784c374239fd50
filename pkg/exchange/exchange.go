// Package exchange converts notes to and from export files.
//
// Structured formats (JSON, YAML, CSV) keep ids, tags and timestamps. The
// text format is meant for reading and only keeps titles and content, so
// imported text notes receive new ids.
package exchange

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/quicknote/pkg/core"
)

// Format identifies an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// Ext returns the file extension used for the format.
func (f Format) Ext() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// DetectFormat picks a format from the file extension, falling back to
// sniffing the content.
func DetectFormat(filename string, data []byte) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(filename), ".")); err == nil {
		return f
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return FormatJSON
	}
	return FormatText
}

// Filename returns the conventional export file name for the given day.
func Filename(f Format, day time.Time) string {
	return fmt.Sprintf("quicknotes-%s.%s", day.Format("2006-01-02"), f.Ext())
}

// Envelope is the document written by structured exports.
type Envelope struct {
	ExportedAt time.Time   `json:"exportedAt" yaml:"exportedAt"`
	NotesCount int         `json:"notesCount" yaml:"notesCount"`
	Notes      []core.Note `json:"notes" yaml:"notes"`
}

// Codec reads and writes one format.
type Codec interface {
	// Encode writes notes in repository order.
	Encode(w io.Writer, notes []core.Note, exportedAt time.Time) error
	// Decode parses an export file. It fails with core.ErrInvalidImport when
	// the data cannot be parsed at all.
	Decode(data []byte) (Report, error)
}

// Codecs returns the standard set of codecs.
func Codecs() map[Format]Codec {
	return map[Format]Codec{
		FormatJSON: JSONCodec{},
		FormatYAML: YAMLCodec{},
		FormatCSV:  CSVCodec{},
		FormatText: TextCodec{},
	}
}

func codecFor(f Format) (Codec, error) {
	c, ok := Codecs()[f]
	if !ok {
		return nil, fmt.Errorf("unknown format %q", f)
	}
	return c, nil
}

// Export writes notes to w in format f.
func Export(w io.Writer, f Format, notes []core.Note, exportedAt time.Time) error {
	c, err := codecFor(f)
	if err != nil {
		return err
	}
	return c.Encode(w, notes, exportedAt)
}

// Decode parses data in format f.
func Decode(data []byte, f Format) (Report, error) {
	c, err := codecFor(f)
	if err != nil {
		return Report{}, err
	}
	return c.Decode(data)
}

// Merger receives imported notes. core.Service implements it.
type Merger interface {
	Merge(ctx context.Context, notes []core.Note) (int, error)
}

// Result summarizes an import.
type Result struct {
	Parsed   int
	Added    int
	Rejected int
}

// Import decodes data and merges the valid notes into m. Parse failures and
// files without a single valid note leave m untouched.
func Import(ctx context.Context, m Merger, data []byte, f Format) (Result, error) {
	report, err := Decode(data, f)
	if err != nil {
		return Result{}, err
	}
	res := Result{Parsed: len(report.Notes), Rejected: len(report.Rejected)}
	if len(report.Notes) == 0 {
		return res, core.ErrNoValidNotes
	}

	added, err := m.Merge(ctx, report.Notes)
	res.Added = added
	return res, err
}
