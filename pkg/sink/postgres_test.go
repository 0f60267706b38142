//go:build integration

package sink_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/HatiCode/millboard/pkg/adapters"
	"github.com/HatiCode/millboard/pkg/sink"
	"github.com/HatiCode/millboard/pkg/synth"
)

func startPostgres(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "mill",
				"POSTGRES_PASSWORD": "mill",
				"POSTGRES_DB":       "mill",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatal(err)
	}
	return fmt.Sprintf("postgres://mill:mill@%s:%s/mill?sslmode=disable", host, port.Port())
}

func TestPostgresSink_RoundTripThroughAdapter(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	db, err := sink.OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres() error = %v", err)
	}
	defer db.Close()

	obs, err := synth.Generate(synth.Params{Seed: 42})
	if err != nil {
		t.Fatal(err)
	}

	s := &sink.PostgresSink{DB: db}
	if err := s.Write(ctx, obs); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// A second seed with Truncate replaces rows instead of violating the key.
	s.Truncate = true
	if err := s.Write(ctx, obs); err != nil {
		t.Fatalf("Write() with truncate error = %v", err)
	}

	ds, err := (&adapters.PostgresAdapter{DB: db}).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(ds.Observations) != 180 {
		t.Fatalf("loaded %d observations, want 180", len(ds.Observations))
	}
	if ds.Observations[0].Utilization != obs[0].Utilization {
		t.Errorf("first utilization = %v, want %v", ds.Observations[0].Utilization, obs[0].Utilization)
	}
}

func TestPostgresSink_DuplicateWithoutTruncate(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	db, err := sink.OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	obs, _ := synth.Generate(synth.Params{Days: 1})
	s := &sink.PostgresSink{DB: db, Table: "dup"}
	if err := s.Write(ctx, obs); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(ctx, obs); err == nil {
		t.Error("expected primary key violation on second write")
	}
}
