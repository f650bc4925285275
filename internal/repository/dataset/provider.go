// Package dataset loads the normalized labor-market snapshot. The engine
// never parses raw CSV; the snapshot is a JSON-lines file of already split
// and validated records.
package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/laborlens/laborlens/internal/domain"
)

// row is the JSON-lines wire form of one record. Absent numeric fields are
// null, never zero.
type row struct {
	ID           string   `json:"id"`
	Industry     string   `json:"industry"`
	Occupation   string   `json:"occupation"`
	Description  string   `json:"description"`
	Tasks        []string `json:"tasks"`
	Activities   []string `json:"activities"`
	Employment   int64    `json:"employment"`
	HourlyWage   *float64 `json:"hourly_wage"`
	HoursPerTask *float64 `json:"hours_per_task"`
}

// Provider implements ingest.DatasetProvider from a JSON-lines file.
type Provider struct {
	path   string
	logger *zap.Logger
}

// New creates a dataset provider.
func New(path string, logger *zap.Logger) *Provider {
	return &Provider{path: path, logger: logger}
}

// Load reads and normalizes every record. Malformed lines fail the load; a
// partial dataset must never become a generation.
func (p *Provider) Load(ctx context.Context) ([]domain.Record, error) {
	f, err := os.Open(filepath.Clean(p.path))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []domain.Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(sc.Bytes()) == 0 {
			continue
		}
		var r row
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", line, err)
		}
		if r.ID == "" {
			r.ID = strconv.Itoa(line)
		}
		records = append(records, domain.NewRecord(domain.Record{
			ID:           r.ID,
			Industry:     r.Industry,
			Occupation:   r.Occupation,
			Description:  r.Description,
			Tasks:        r.Tasks,
			Activities:   r.Activities,
			Employment:   r.Employment,
			HourlyWage:   optional(r.HourlyWage),
			HoursPerTask: optional(r.HoursPerTask),
		}))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	p.logger.Info("dataset loaded",
		zap.String("path", p.path),
		zap.Int("records", len(records)))
	return records, nil
}

func optional(v *float64) domain.Optional {
	if v == nil {
		return domain.Absent()
	}
	return domain.Present(*v)
}
