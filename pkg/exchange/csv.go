package exchange

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/quicknote/pkg/core"
)

var csvHeader = []string{"id", "title", "content", "tags", "createdAt", "updatedAt"}

// CSVCodec writes one note per row. Tags are stored as a JSON list.
type CSVCodec struct{}

func (CSVCodec) Encode(w io.Writer, notes []core.Note, exportedAt time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, n := range notes {
		tags := n.Tags
		if tags == nil {
			tags = []string{}
		}
		encodedTags, err := json.Marshal(tags)
		if err != nil {
			return err
		}
		row := []string{
			n.ID,
			n.Title,
			n.Content,
			string(encodedTags),
			n.CreatedAt.Format(time.RFC3339Nano),
			n.UpdatedAt.Format(time.RFC3339Nano),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (CSVCodec) Decode(data []byte) (Report, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return Report{}, fmt.Errorf("%w: %v", core.ErrInvalidImport, err)
	}
	if len(rows) == 0 {
		return Report{}, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	records := make([]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]any, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = row[i]
			}
		}
		records = append(records, rec)
	}
	return classifyAll(records), nil
}
