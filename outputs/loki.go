package outputs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/ReK42/modem-info/utils"
)

// LokiExporter pushes one flattened statistics row per poll to a Loki
// endpoint as a log line.
type LokiExporter struct {
	endpoint string
	client   *http.Client
	seenRows *lru.Cache
	labels   map[string]string
	modem    utils.DocsisModemDriver
}

// lokiPushRequest represents the Loki push API request format
type lokiPushRequest struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

// NewLokiExporter creates a new Loki exporter
func NewLokiExporter(endpoint string, modem utils.DocsisModemDriver, labels map[string]string) (*LokiExporter, error) {
	if labels == nil {
		labels = make(map[string]string)
	}
	if _, ok := labels["job"]; !ok {
		labels["job"] = "modem-info"
	}

	// Bounded dedup of already-pushed rows; the key is the row's
	// second-resolution timestamp.
	seenRows, err := lru.New(4096)
	if err != nil {
		return nil, err
	}

	return &LokiExporter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		seenRows: seenRows,
		labels:   labels,
		modem:    modem,
	}, nil
}

// PushRow fetches fresh statistics and pushes one row to Loki
func (l *LokiExporter) PushRow() error {
	l.modem.ClearStats()
	row, err := l.modem.DocsisStatisticsFlattened()
	if err != nil {
		return fmt.Errorf("failed to fetch statistics: %w", err)
	}

	if l.seenRows.Contains(row.Timestamp) {
		return nil
	}

	line, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, row.Timestamp)
	if err != nil {
		// If parsing fails, use current time
		ts = time.Now()
	}

	// Loki expects nanosecond timestamps as strings
	tsNano := fmt.Sprintf("%d", ts.UnixNano())
	req := lokiPushRequest{
		Streams: []lokiStream{{
			Stream: l.labels,
			Values: [][]string{{tsNano, string(line)}},
		}},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal loki request: %w", err)
	}

	resp, err := l.client.Post(l.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to push to loki: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki returned status %d", resp.StatusCode)
	}

	// Mark the row as seen after a successful push
	l.seenRows.Add(row.Timestamp, true)
	return nil
}

// StartPolling starts a background goroutine that pushes a row at the given interval
func (l *LokiExporter) StartPolling(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Initial push
		if err := l.PushRow(); err != nil {
			logrus.WithError(err).Error("Error pushing statistics to Loki")
		}

		for range ticker.C {
			if err := l.PushRow(); err != nil {
				logrus.WithError(err).Error("Error pushing statistics to Loki")
			}
		}
	}()
}
