package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/HatiCode/millboard/pkg/mill"
)

// HTTPAdapter loads observations from a JSON telemetry export. Records are
// located with a gjson path and each record's fields are read by key:
//
//	{"observations": [
//	  {"date": "2023-01-01", "plant": "Plant A", "machine": "Machine 1",
//	   "utilization": 85.2, "material": 1.4, "quality": 2.9, "packing": 1.1,
//	   "machineEnergy": 30.1, "utilityEnergy": 44.7, "bpt": 0.93}
//	]}
//
// Downtime, the reason breakdown, other energy and evenness are derived.
type HTTPAdapter struct {
	// URL is the endpoint to call (required).
	URL string

	// Headers are custom HTTP headers to include in the request.
	Headers map[string]string

	// RecordsPath is the gjson path to the array of records. Defaults to "observations".
	RecordsPath string

	// HTTPClient is optional; if nil a default client with timeout is used.
	HTTPClient *http.Client
}

func (h *HTTPAdapter) Name() string { return "http" }

// Load implements Adapter.
func (h *HTTPAdapter) Load(ctx context.Context) (*mill.Dataset, error) {
	if h.URL == "" {
		return nil, errors.New("http adapter: URL is required")
	}

	path := h.RecordsPath
	if path == "" {
		path = "observations"
	}

	cli := h.HTTPClient
	if cli == nil {
		cli = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range h.Headers {
		req.Header.Set(key, value)
	}

	resp, err := cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if !gjson.ValidBytes(respBody) {
		return nil, errors.New("response is not valid JSON")
	}

	records := gjson.GetBytes(respBody, path)
	if !records.Exists() {
		return nil, fmt.Errorf("records path %q not found in response", path)
	}
	if !records.IsArray() {
		return nil, fmt.Errorf("records path %q is not an array", path)
	}

	items := records.Array()
	observations := make([]mill.Observation, 0, len(items))
	for i, item := range items {
		rec, err := parseRecord(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		observations = append(observations, rec.toObservation())
	}

	return newDataset(h.Name(), 0, observations)
}

// parseRecord reads one record object. Dates may be RFC3339 or YYYY-MM-DD.
func parseRecord(item gjson.Result) (record, error) {
	if !item.IsObject() {
		return record{}, errors.New("not an object")
	}

	date, err := parseDate(item.Get("date").String())
	if err != nil {
		return record{}, err
	}

	rec := record{
		Date:    date,
		Plant:   item.Get("plant").String(),
		Machine: item.Get("machine").String(),
	}

	numbers := []struct {
		key string
		dst *float64
	}{
		{"utilization", &rec.Utilization},
		{"material", &rec.Material},
		{"quality", &rec.Quality},
		{"packing", &rec.Packing},
		{"machineEnergy", &rec.MachineEnergy},
		{"utilityEnergy", &rec.UtilityEnergy},
		{"bpt", &rec.BPT},
	}
	for _, n := range numbers {
		v := item.Get(n.key)
		if v.Type != gjson.Number {
			return record{}, fmt.Errorf("field %q missing or not a number", n.key)
		}
		*n.dst = v.Float()
	}

	return rec, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("field \"date\" missing")
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}
