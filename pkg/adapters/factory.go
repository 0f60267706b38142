package adapters

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/HatiCode/millboard/pkg/synth"
)

// New creates an adapter based on kind and generic configuration map.
// This is the central extension point for adding new adapter types.
//
// Supported kinds:
//   - "synthetic": deterministic sample data (seed, days, start)
//   - "http": JSON telemetry export (url, recordsPath, headers)
//   - "postgres": observations table (dsn, table)
//   - "kafka": observation topic (brokers, topic, maxMessages, idleTimeout)
//
// Returns error if kind is unknown or required fields are missing.
func New(kind string, config map[string]string) (Adapter, error) {
	switch kind {
	case "synthetic", "":
		return newSynthetic(config)
	case "http":
		return newHTTP(config)
	case "postgres":
		return newPostgres(config)
	case "kafka":
		return newKafka(config)
	default:
		return nil, fmt.Errorf("unknown adapter kind: %s (must be synthetic, http, postgres, or kafka)", kind)
	}
}

func newSynthetic(config map[string]string) (Adapter, error) {
	a := &SyntheticAdapter{Params: synth.Params{Seed: synth.DefaultSeed}}

	if v := config["seed"]; v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid 'seed': %w", err)
		}
		a.Params.Seed = seed
	}

	if v := config["days"]; v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("invalid 'days' %q: must be a positive integer", v)
		}
		a.Params.Days = days
	}

	if v := config["start"]; v != "" {
		start, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return nil, fmt.Errorf("invalid 'start': %w", err)
		}
		a.Params.Start = start
	}

	if v := config["plants"]; v != "" {
		a.Params.Plants = splitList(v)
	}
	if v := config["machines"]; v != "" {
		a.Params.Machines = splitList(v)
	}

	return a, nil
}

func newHTTP(config map[string]string) (Adapter, error) {
	url := config["url"]
	if url == "" {
		return nil, fmt.Errorf("http adapter requires 'url' config")
	}

	recordsPath := config["recordsPath"]
	if recordsPath == "" {
		recordsPath = "observations"
	}

	var headers map[string]string
	if headersJSON := config["headers"]; headersJSON != "" {
		if err := json.Unmarshal([]byte(headersJSON), &headers); err != nil {
			return nil, fmt.Errorf("invalid 'headers' JSON: %w", err)
		}
	}

	return &HTTPAdapter{
		URL:         url,
		Headers:     headers,
		RecordsPath: recordsPath,
	}, nil
}

func newPostgres(config map[string]string) (Adapter, error) {
	dsn := config["dsn"]
	if dsn == "" {
		return nil, fmt.Errorf("postgres adapter requires 'dsn' config")
	}

	table := config["table"]
	if table == "" {
		table = "observations"
	}
	if !tableNameRegex.MatchString(table) {
		return nil, fmt.Errorf("invalid 'table' %q", table)
	}

	return &PostgresAdapter{DSN: dsn, Table: table}, nil
}

func newKafka(config map[string]string) (Adapter, error) {
	brokers := splitList(config["brokers"])
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka adapter requires 'brokers' config")
	}

	topic := config["topic"]
	if topic == "" {
		return nil, fmt.Errorf("kafka adapter requires 'topic' config")
	}

	// Loads read without a consumer group.
	if config["groupId"] != "" {
		return nil, fmt.Errorf("kafka adapter does not take 'groupId': every load reads the whole topic")
	}

	a := &KafkaAdapter{
		Brokers:     brokers,
		Topic:       topic,
		MaxMessages: 0,
		IdleTimeout: 5 * time.Second,
	}

	if v := config["maxMessages"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid 'maxMessages' %q", v)
		}
		a.MaxMessages = n
	}

	if v := config["idleTimeout"]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid 'idleTimeout' %q", v)
		}
		a.IdleTimeout = d
	}

	return a, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
