package exchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/quicknote/pkg/core"
)

// JSONCodec handles the structured export format.
type JSONCodec struct{}

func (JSONCodec) Encode(w io.Writer, notes []core.Note, exportedAt time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newEnvelope(notes, exportedAt))
}

func (JSONCodec) Decode(data []byte) (Report, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Report{}, fmt.Errorf("%w: %v", core.ErrInvalidImport, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Report{}, fmt.Errorf("%w: unexpected data after the document", core.ErrInvalidImport)
	}
	records, err := extractRecords(doc)
	if err != nil {
		return Report{}, err
	}
	return classifyAll(records), nil
}

func newEnvelope(notes []core.Note, exportedAt time.Time) Envelope {
	if notes == nil {
		notes = []core.Note{}
	}
	return Envelope{
		ExportedAt: core.Timestamp(exportedAt),
		NotesCount: len(notes),
		Notes:      notes,
	}
}
