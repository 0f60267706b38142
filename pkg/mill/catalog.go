package mill

import (
	"errors"
	"fmt"
	"slices"
)

// All is the sentinel selector value meaning "no constraint".
const All = "All"

var (
	ErrUnknownPlant   = errors.New("unknown plant")
	ErrUnknownMachine = errors.New("unknown machine")
	ErrUnknownReason  = errors.New("unknown reason code")
)

// Catalog is the fixed enumeration of plants and machines a dataset covers.
type Catalog struct {
	Plants   []string `json:"plants"`
	Machines []string `json:"machines"`
}

// DefaultCatalog returns the two-plant, three-machine layout of the sample mill.
func DefaultCatalog() Catalog {
	return Catalog{
		Plants:   []string{"Plant A", "Plant B"},
		Machines: []string{"Machine 1", "Machine 2", "Machine 3"},
	}
}

// CatalogFrom derives the enumeration from observations in first-seen order.
func CatalogFrom(observations []Observation) Catalog {
	var c Catalog
	for _, o := range observations {
		if !slices.Contains(c.Plants, o.Plant) {
			c.Plants = append(c.Plants, o.Plant)
		}
		if !slices.Contains(c.Machines, o.Machine) {
			c.Machines = append(c.Machines, o.Machine)
		}
	}
	return c
}

// Selection is the user's choice of plant, machine and reason code. Empty
// strings and All both mean unconstrained.
type Selection struct {
	Plant   string `json:"plant"`
	Machine string `json:"machine"`
	Reason  Reason `json:"reason"`
}

// IsAll reports whether v is the unconstrained sentinel.
func IsAll(v string) bool {
	return v == "" || v == All
}

// ReasonSet reports whether sel constrains the reason code.
func (s Selection) ReasonSet() bool {
	return !IsAll(string(s.Reason))
}

// Validate rejects selector values that are not in the enumeration.
func (c Catalog) Validate(sel Selection) error {
	if !IsAll(sel.Plant) && !slices.Contains(c.Plants, sel.Plant) {
		return fmt.Errorf("%w: %q", ErrUnknownPlant, sel.Plant)
	}
	if !IsAll(sel.Machine) && !slices.Contains(c.Machines, sel.Machine) {
		return fmt.Errorf("%w: %q", ErrUnknownMachine, sel.Machine)
	}
	if sel.ReasonSet() && sel.Reason.Index() < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownReason, sel.Reason)
	}
	return nil
}
