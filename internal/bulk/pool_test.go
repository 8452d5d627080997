package bulk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordwx/era5cli/pkg/logger"
)

func TestReadJobs(t *testing.T) {
	writeCSV := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "cities.csv")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("parses rows with header normalization", func(t *testing.T) {
		path := writeCSV(t, " Name ,COUNTRY,lat,Lon\nGothenburg,SE,57.7,11.9\nOslo,NO,59.9,10.7\n")
		jobs, err := ReadJobs(path)
		require.NoError(t, err)
		require.Len(t, jobs, 2)
		assert.Equal(t, Job{Name: "Gothenburg", Country: "SE", Lat: 57.7, Lon: 11.9}, jobs[0])
	})

	t.Run("missing columns listed", func(t *testing.T) {
		path := writeCSV(t, "name,lat\nGothenburg,57.7\n")
		_, err := ReadJobs(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "country")
		assert.Contains(t, err.Error(), "lon")
	})

	t.Run("bad coordinate names the row", func(t *testing.T) {
		path := writeCSV(t, "name,country,lat,lon\nGothenburg,SE,north,11.9\n")
		_, err := ReadJobs(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 2")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadJobs(filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CSV not found")
	})
}

func TestPoolRun(t *testing.T) {
	t.Run("failures do not cancel siblings", func(t *testing.T) {
		jobs := []Job{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}}
		pool := NewPool(2, logger.NewNop())

		var ran int32
		outcomes := pool.Run(context.Background(), jobs, func(_ context.Context, job Job) error {
			atomic.AddInt32(&ran, 1)
			if job.Name == "b" {
				return fmt.Errorf("boom")
			}
			return nil
		})

		assert.Equal(t, int32(4), ran)
		require.Len(t, outcomes, 4)
		failed := Failures(outcomes)
		require.Len(t, failed, 1)
		assert.Equal(t, "b", failed[0].Job.Name)
	})

	t.Run("bounded concurrency", func(t *testing.T) {
		jobs := make([]Job, 16)
		pool := NewPool(3, logger.NewNop())

		var mu sync.Mutex
		inflight, peak := 0, 0
		release := make(chan struct{})
		go func() { close(release) }()

		outcomes := pool.Run(context.Background(), jobs, func(context.Context, Job) error {
			mu.Lock()
			inflight++
			if inflight > peak {
				peak = inflight
			}
			mu.Unlock()
			<-release
			mu.Lock()
			inflight--
			mu.Unlock()
			return nil
		})

		assert.Len(t, outcomes, 16)
		assert.LessOrEqual(t, peak, 3)
	})

	t.Run("cancelled context skips queued jobs", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		jobs := []Job{{Name: "a"}, {Name: "b"}}
		pool := NewPool(1, logger.NewNop())
		outcomes := pool.Run(ctx, jobs, func(context.Context, Job) error { return nil })

		assert.Len(t, outcomes, 2)
	})
}
