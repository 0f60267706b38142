package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/HatiCode/millboard/pkg/mill"
)

// JSONSink writes {"observations": [...]} to W, the document HTTPAdapter
// reads with its default records path.
type JSONSink struct {
	W      io.Writer
	Indent bool
}

func (j *JSONSink) Name() string { return "json" }

// Write implements Sink.
func (j *JSONSink) Write(ctx context.Context, observations []mill.Observation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := struct {
		Observations []Record `json:"observations"`
	}{Observations: make([]Record, len(observations))}
	for i, o := range observations {
		doc.Observations[i] = NewRecord(o)
	}

	enc := json.NewEncoder(j.W)
	if j.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode observations: %w", err)
	}
	return nil
}
