package api

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordwx/era5cli/internal/cache"
	"github.com/nordwx/era5cli/internal/config"
	"github.com/nordwx/era5cli/internal/storage/sqlite"
	"github.com/nordwx/era5cli/pkg/logger"
)

func writeArchive(t *testing.T, dataDir, name string, lat, lon float64) {
	t.Helper()
	filename := fmt.Sprintf("%s_%.4f_%.4f.zip", name, lat, lon)
	f, err := os.Create(filepath.Join(dataDir, filename))
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("data.csv")
	require.NoError(t, err)
	header := "valid_time,latitude,longitude,t2m,d2m,tp,ssrd,strd,snowc,u10,v10\n"
	row1 := fmt.Sprintf("2024-01-01 00:00:00,%f,%f,280.15,275.15,0.001,120000,90000,0,3,4\n", lat, lon)
	row2 := fmt.Sprintf("2024-01-01 01:00:00,%f,%f,281.15,276.15,0.002,121000,91000,0,2,2\n", lat, lon)
	_, err = w.Write([]byte(header + row1 + row2))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Workspace.Root = t.TempDir()
	dataDir, err := cfg.EnsureDataDir()
	require.NoError(t, err)

	writeArchive(t, dataDir, "gothenburg", 57.7, 11.9)
	writeArchive(t, dataDir, "stockholm", 59.3, 18.1)

	store, err := sqlite.Open(dataDir, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = cache.Refresh(dataDir, store, logger.NewNop())
	require.NoError(t, err)

	router := NewRouter(store, cfg, logger.NewNop())
	srv := httptest.NewServer(router.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestListDatasets(t *testing.T) {
	srv := newTestServer(t)

	t.Run("all datasets", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/datasets")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var payload struct {
			Count    int
			Datasets []cache.Entry
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		assert.Equal(t, 2, payload.Count)
		assert.Equal(t, "Gothenburg", payload.Datasets[0].Name)
	})

	t.Run("filtered", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/datasets?filter=" + "lat%20%3E%2058")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var payload struct {
			Count    int
			Datasets []cache.Entry
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		require.Equal(t, 1, payload.Count)
		assert.Equal(t, "Stockholm", payload.Datasets[0].Name)
	})

	t.Run("bad filter", func(t *testing.T) {
		status, body := getBody(t, srv.URL+"/api/v1/datasets?filter=altitude%3D1")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body, "invalid filter")
	})
}

func TestGetDataset(t *testing.T) {
	srv := newTestServer(t)

	status, body := getBody(t, srv.URL+"/api/v1/datasets/gothenburg")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "gothenburg_57.7000_11.9000")

	status, _ = getBody(t, srv.URL+"/api/v1/datasets/atlantis")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetReport(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/reports/gothenburg")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	status, _ := getBody(t, srv.URL+"/reports/atlantis")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIndex(t *testing.T) {
	srv := newTestServer(t)

	status, body := getBody(t, srv.URL+"/")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Gothenburg")
	assert.Contains(t, body, `/reports/stockholm`)
}
