// Package storage holds the current observation dataset for a dashboard
// deployment. The dataset is written once per load and read by every request.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/HatiCode/millboard/pkg/mill"
)

// Store keeps the latest dataset under a deployment name.
type Store interface {
	Put(ctx context.Context, name string, ds mill.Dataset) error
	Get(ctx context.Context, name string) (mill.Dataset, bool, error)
}

// validate applies the checks shared by every Store implementation.
func validate(name string, ds mill.Dataset) error {
	if err := validateName(name); err != nil {
		return err
	}
	if len(ds.Observations) == 0 {
		return errors.New("dataset has no observations")
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return errors.New("dataset name cannot be empty")
	}
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '-' || c == '_') {
			return fmt.Errorf("invalid dataset name %q: only alphanumeric, hyphens, and underscores allowed", name)
		}
	}
	return nil
}
