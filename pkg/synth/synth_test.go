package synth

import (
	"math/rand"
	"testing"
	"time"
)

func TestGenerate_Defaults(t *testing.T) {
	obs, err := Generate(Params{Seed: DefaultSeed})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(obs) != 180 {
		t.Fatalf("len = %d, want 180", len(obs))
	}

	first := obs[0]
	if !first.Date.Equal(DefaultStart) || first.Plant != "Plant A" || first.Machine != "Machine 1" {
		t.Errorf("first row = %v %s %s", first.Date, first.Plant, first.Machine)
	}
	second := obs[1]
	if !second.Date.Equal(DefaultStart) || second.Machine != "Machine 2" {
		t.Errorf("second row = %v %s, want same date Machine 2", second.Date, second.Machine)
	}
	last := obs[len(obs)-1]
	if !last.Date.Equal(DefaultStart.AddDate(0, 0, 29)) || last.Plant != "Plant B" || last.Machine != "Machine 3" {
		t.Errorf("last row = %v %s %s", last.Date, last.Plant, last.Machine)
	}
}

func TestGenerate_Ranges(t *testing.T) {
	obs, err := Generate(Params{Seed: 7})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for i, o := range obs {
		if err := o.Validate(); err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		checks := []struct {
			name      string
			v, lo, hi float64
		}{
			{"utilization", o.Utilization, 80, 92},
			{"material", o.Downgrade.Material, 1, 3},
			{"quality", o.Downgrade.Quality, 2, 4},
			{"packing", o.Downgrade.Packing, 1, 2},
			{"machine energy", o.Energy.Machine, 28, 32},
			{"utility energy", o.Energy.Utility, 40, 50},
			{"bpt", o.BPT, 0.7, 1.3},
			{"evenness", o.Evenness, 85, 91},
		}
		for _, c := range checks {
			if c.v < c.lo || c.v > c.hi {
				t.Errorf("row %d: %s = %v outside [%v,%v]", i, c.name, c.v, c.lo, c.hi)
			}
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(Params{Seed: 42})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(Params{Seed: 42})
	if err != nil {
		t.Fatal(err)
	}
	c, err := Generate(Params{Seed: 43})
	if err != nil {
		t.Fatal(err)
	}

	for i := range a {
		if a[i].Utilization != b[i].Utilization || a[i].BPT != b[i].BPT {
			t.Fatalf("row %d differs for the same seed", i)
		}
	}
	if a[0].Utilization == c[0].Utilization {
		t.Error("different seeds produced the same first row")
	}
}

func TestGenerate_ZeroParamsUseDefaultSeed(t *testing.T) {
	implicit, err := Generate(Params{})
	if err != nil {
		t.Fatal(err)
	}
	explicit, err := Generate(Params{Seed: DefaultSeed})
	if err != nil {
		t.Fatal(err)
	}

	if len(implicit) != len(explicit) {
		t.Fatalf("len = %d, want %d", len(implicit), len(explicit))
	}
	for i := range explicit {
		if implicit[i] != explicit[i] {
			t.Fatalf("row %d: Params{} differs from Seed %d", i, DefaultSeed)
		}
	}

	if got := (Params{}).WithDefaults().Seed; got != DefaultSeed {
		t.Errorf("WithDefaults().Seed = %d, want %d", got, DefaultSeed)
	}
	if got := (Params{Seed: 7}).WithDefaults().Seed; got != 7 {
		t.Errorf("explicit seed overwritten: %d", got)
	}
}

func TestGenerate_Params(t *testing.T) {
	start := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	obs, err := Generate(Params{
		Start:    start,
		Days:     3,
		Plants:   []string{"North"},
		Machines: []string{"R1", "R2"},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(obs) != 6 {
		t.Fatalf("len = %d, want 6", len(obs))
	}
	if want := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC); !obs[0].Date.Equal(want) {
		t.Errorf("first date = %v, want %v", obs[0].Date, want)
	}
	if obs[5].Plant != "North" || obs[5].Machine != "R2" {
		t.Errorf("last row = %s %s", obs[5].Plant, obs[5].Machine)
	}
}

func TestGenerate_NegativeDays(t *testing.T) {
	if _, err := Generate(Params{Days: -1}); err == nil {
		t.Error("Generate() with negative days returned nil error")
	}
}

func TestGenerateFrom_SharedSource(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	first := GenerateFrom(rng, Params{Days: 1})
	second := GenerateFrom(rng, Params{Days: 1})

	if first[0].Utilization == second[0].Utilization {
		t.Error("consecutive draws from one source repeated")
	}
}
