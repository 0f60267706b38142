package adapters

import (
	"context"

	"github.com/HatiCode/millboard/pkg/mill"
	"github.com/HatiCode/millboard/pkg/synth"
)

// SyntheticAdapter produces the deterministic sample dataset.
type SyntheticAdapter struct {
	Params synth.Params
}

func (s *SyntheticAdapter) Name() string { return "synthetic" }

// Load implements Adapter.
func (s *SyntheticAdapter) Load(ctx context.Context) (*mill.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := s.Params.WithDefaults()
	observations, err := synth.Generate(params)
	if err != nil {
		return nil, err
	}

	return newDataset(s.Name(), params.Seed, observations)
}
