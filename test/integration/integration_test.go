//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/HatiCode/millboard/cmd/millboard/metrics"
	"github.com/HatiCode/millboard/cmd/millboard/router"
	"github.com/HatiCode/millboard/pkg/adapters"
	"github.com/HatiCode/millboard/pkg/storage"
)

// TestSharedDatasetAcrossReplicas loads the sample dataset once into Redis
// and checks that two independent API replicas serve identical views from it.
func TestSharedDatasetAcrossReplicas(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	redisContainer, err := redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("Failed to start redis: %v", err)
	}
	defer func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Logf("Failed to terminate redis: %v", err)
		}
	}()

	endpoint, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get redis endpoint: %v", err)
	}
	addr := strings.TrimPrefix(endpoint, "redis://")

	// 1. Load the dataset once and publish it to the shared store
	writer, err := storage.NewRedisStore(addr, "", 0, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create writer store: %v", err)
	}
	defer writer.Close()

	adapter, err := adapters.New("synthetic", map[string]string{"seed": "42"})
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}
	ds, err := adapter.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	if err := writer.Put(ctx, "default", *ds); err != nil {
		t.Fatalf("Failed to store dataset: %v", err)
	}

	// 2. Start two replicas, each with its own Redis client
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var urls []string
	for _, name := range []string{"replica-a", "replica-b"} {
		store, err := storage.NewRedisStore(addr, "", 0, time.Hour)
		if err != nil {
			t.Fatalf("%s: failed to create store: %v", name, err)
		}
		defer store.Close()

		m := metrics.NewWith(prometheus.NewRegistry(), "default")
		srv := httptest.NewServer(router.SetupRoutes(store, "default", 0, logger, m))
		defer srv.Close()
		urls = append(urls, srv.URL)
	}

	// 3. Both replicas are healthy and agree on every view
	for _, u := range urls {
		resp, err := http.Get(u + "/healthz")
		if err != nil {
			t.Fatalf("health check failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s/healthz = %d, want 200", u, resp.StatusCode)
		}
	}

	queries := []string{
		"",
		"?plant=Plant+A",
		"?plant=Plant+B&machine=Machine+2",
		"?machine=Machine+3&reason=Breakages",
	}
	for _, q := range queries {
		a := fetchDashboard(t, urls[0]+"/api/dashboard"+q)
		b := fetchDashboard(t, urls[1]+"/api/dashboard"+q)

		if a.DatasetID != ds.ID || b.DatasetID != ds.ID {
			t.Errorf("%q: dataset IDs %q/%q, want %q", q, a.DatasetID, b.DatasetID, ds.ID)
		}
		if a.Summary != b.Summary {
			t.Errorf("%q: summaries differ: %+v vs %+v", q, a.Summary, b.Summary)
		}
		if len(a.Downtime) != len(b.Downtime) {
			t.Fatalf("%q: downtime lengths differ", q)
		}
		for i := range a.Downtime {
			if a.Downtime[i] != b.Downtime[i] {
				t.Errorf("%q: downtime day %d differs", q, i)
			}
		}
	}

	// 4. Filter cardinalities hold end to end
	counts := map[string]int{
		"":                                 180,
		"?plant=Plant+A":                   90,
		"?plant=Plant+A&machine=Machine+1": 30,
	}
	for q, want := range counts {
		got := fetchDashboard(t, urls[0]+"/api/dashboard"+q)
		if got.Summary.Observations != want {
			t.Errorf("%q: observations = %d, want %d", q, got.Summary.Observations, want)
		}
	}
}

func fetchDashboard(t *testing.T, url string) router.DashboardResponse {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s = %d: %s", url, resp.StatusCode, body)
	}

	var out router.DashboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return out
}
