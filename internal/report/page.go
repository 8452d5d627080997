package report

import (
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/render"

	"github.com/nordwx/era5cli/internal/timeseries"
	"github.com/nordwx/era5cli/pkg/logger"
)

// echartsScript is the external charting script the static page loads.
const echartsScript = "https://go-echarts.github.io/go-echarts-assets/assets/echarts.min.js"

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>{{.Title}}</title>
  <script src="{{.Script}}"></script>
  <style>
    body { font-family: sans-serif; margin: 2em; }
    table { border-collapse: collapse; margin-bottom: 2em; }
    th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
    th { background: #1f77b4; color: white; }
    .chart { margin-bottom: 2em; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <h2>Summary</h2>
  <table>
    <tr><th>Variable</th><th>Points</th><th>Start</th><th>End</th><th>Mean</th><th>Median</th><th>Max (time)</th><th>Min (time)</th></tr>
    {{range .Summary}}<tr><td>{{.Variable}}</td><td>{{.Points}}</td><td>{{.Start}}</td><td>{{.End}}</td><td>{{.Mean}}</td><td>{{.Median}}</td><td>{{.Max}}</td><td>{{.Min}}</td></tr>
    {{end}}
  </table>
  {{range .Charts}}<div class="chart">{{.Element}}{{.Script}}</div>
  {{end}}
</body>
</html>
`))

type pageData struct {
	Title   string
	Script  string
	Summary []SummaryRow
	Charts  []chartFragment
}

type chartFragment struct {
	Element template.HTML
	Script  template.HTML
}

// Render writes the full report page for a canonical frame to a file.
func Render(frame *timeseries.Frame, name, outputPath string, log *logger.Logger) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := RenderTo(f, frame, name, log); err != nil {
		return err
	}

	log.Named("report").Info("Report written",
		logger.String("location", name),
		logger.String("path", outputPath))
	return nil
}

// RenderTo writes the report page to an arbitrary writer.
func RenderTo(w io.Writer, frame *timeseries.Frame, name string, log *logger.Logger) error {
	if frame.Empty() {
		return fmt.Errorf("no data available for plotting")
	}

	tempLine, err := temperatureClimatology(frame, name)
	if err != nil {
		return err
	}
	histogram, err := temperatureHistogram(frame)
	if err != nil {
		return err
	}
	radiation, err := radiationDailyMax(frame, name)
	if err != nil {
		return err
	}
	precipitation, err := precipitationClimatology(frame, name)
	if err != nil {
		return err
	}

	fragments := []chartFragment{
		lineSnippet(tempLine),
		barSnippet(histogram),
		lineSnippet(radiation),
		lineSnippet(precipitation),
	}

	data := pageData{
		Title:   fmt.Sprintf("ERA5 data for %s", name),
		Script:  echartsScript,
		Summary: Summarize(frame),
		Charts:  fragments,
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	log.Named("report").Debug("Report rendered",
		logger.String("location", name),
		logger.Int("charts", len(fragments)))
	return nil
}

// The charts are rendered as embeddable snippets so the summary table
// and all figures share one static page.

func lineSnippet(c *charts.Line) chartFragment {
	c.Renderer = render.NewChartRender(c, c.Validate)
	return toFragment(c.Renderer.RenderSnippet())
}

func barSnippet(c *charts.Bar) chartFragment {
	c.Renderer = render.NewChartRender(c, c.Validate)
	return toFragment(c.Renderer.RenderSnippet())
}

func toFragment(snip render.ChartSnippet) chartFragment {
	return chartFragment{
		Element: template.HTML(snip.Element),
		Script:  template.HTML(snip.Script),
	}
}
