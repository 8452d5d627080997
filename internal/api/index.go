package api

import (
	"html/template"
	"net/http"

	"github.com/nordwx/era5cli/internal/cache"
	"github.com/nordwx/era5cli/internal/dataset"
	"github.com/nordwx/era5cli/pkg/logger"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>Cached ERA5 datasets</title>
  <style>
    body { font-family: sans-serif; margin: 2em; }
    table { border-collapse: collapse; }
    th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
    th { background: #1f77b4; color: white; }
  </style>
</head>
<body>
  <h1>Cached ERA5 datasets</h1>
  {{if .Rows}}<table>
    <tr><th>Name</th><th>Country</th><th>Latitude</th><th>Longitude</th><th></th></tr>
    {{range .Rows}}<tr><td>{{.Name}}</td><td>{{.Country}}</td><td>{{.Lat}}</td><td>{{.Lon}}</td><td><a href="/reports/{{.Slug}}">report</a></td></tr>
    {{end}}
  </table>{{else}}<p>No cached datasets. Run 'weather refresh-database' to populate the cache.</p>{{end}}
</body>
</html>
`))

type indexRow struct {
	cache.Entry
	Slug string
}

// Index lists the cached datasets with links to their report pages.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	entries, err := cache.List(h.store, "")
	if err != nil {
		h.logger.Error("Failed to list cached datasets", logger.Error(err))
		http.Error(w, "Failed to list datasets", http.StatusInternalServerError)
		return
	}

	rows := make([]indexRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, indexRow{Entry: e, Slug: dataset.Slugify(e.Name)})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, map[string]interface{}{"Rows": rows}); err != nil {
		h.logger.Error("Failed to render index page", logger.Error(err))
	}
}
