// Package bulk fans independent download jobs out over a bounded worker
// pool. Individual failures are collected as outcomes and never cancel
// sibling jobs.
package bulk

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nordwx/era5cli/pkg/logger"
)

// Job is one location to download.
type Job struct {
	Name    string
	Country string
	Lat     float64
	Lon     float64
}

// Outcome is the per-job result collected by the pool.
type Outcome struct {
	Job      Job
	Err      error
	Duration time.Duration
}

// requiredColumns for the bulk CSV header (case-insensitive, trimmed).
var requiredColumns = []string{"name", "country", "lat", "lon"}

// ReadJobs parses a CSV of locations with name,country,lat,lon columns.
func ReadJobs(csvPath string) ([]Job, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("CSV not found: %s", csvPath)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", csvPath, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV is missing a header row")
	}

	index := make(map[string]int)
	for i, name := range records[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("CSV missing required columns: %s", strings.Join(missing, ", "))
	}

	var jobs []Job
	for rowNum, record := range records[1:] {
		get := func(col string) string {
			idx := index[col]
			if idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}
		lat, err := strconv.ParseFloat(get("lat"), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid lat %q", rowNum+2, get("lat"))
		}
		lon, err := strconv.ParseFloat(get("lon"), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid lon %q", rowNum+2, get("lon"))
		}
		jobs = append(jobs, Job{
			Name:    get("name"),
			Country: get("country"),
			Lat:     lat,
			Lon:     lon,
		})
	}
	return jobs, nil
}

// Pool runs jobs with a bounded number of workers.
type Pool struct {
	workers int
	logger  *logger.Logger
}

// NewPool creates a pool with the given worker count (minimum 1).
func NewPool(workers int, log *logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers, logger: log.Named("bulk")}
}

// Run executes fn for every job and returns one outcome per job, in
// completion order. A failing job only fails its own outcome; the
// context cancels jobs that have not started yet.
func (p *Pool) Run(ctx context.Context, jobs []Job, fn func(context.Context, Job) error) []Outcome {
	jobCh := make(chan Job)
	outcomeCh := make(chan Outcome, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				start := time.Now()
				err := fn(ctx, job)
				if err != nil {
					p.logger.Warn("Download failed",
						logger.String("name", job.Name),
						logger.Error(err))
				}
				outcomeCh <- Outcome{Job: job, Err: err, Duration: time.Since(start)}
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				outcomeCh <- Outcome{Job: job, Err: ctx.Err()}
			case jobCh <- job:
			}
		}
	}()

	wg.Wait()
	close(outcomeCh)

	outcomes := make([]Outcome, 0, len(jobs))
	for outcome := range outcomeCh {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// Failures filters the outcomes down to the failed ones.
func Failures(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
