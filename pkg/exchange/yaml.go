package exchange

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/quicknote/pkg/core"
)

// YAMLCodec writes the structured envelope as YAML.
type YAMLCodec struct{}

func (YAMLCodec) Encode(w io.Writer, notes []core.Note, exportedAt time.Time) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newEnvelope(notes, exportedAt)); err != nil {
		return err
	}
	return enc.Close()
}

func (YAMLCodec) Decode(data []byte) (Report, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Report{}, fmt.Errorf("%w: %v", core.ErrInvalidImport, err)
	}
	records, err := extractRecords(doc)
	if err != nil {
		return Report{}, err
	}
	return classifyAll(records), nil
}
