package render

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fragmentChart is a Renderable emitting fixed HTML.
type fragmentChart struct {
	html string
}

func (c fragmentChart) Render(w io.Writer) error {
	_, err := w.Write([]byte(c.html))

	return err
}

// failingChart is a Renderable that always fails.
type failingChart struct{}

func (failingChart) Render(io.Writer) error {
	return errors.New("chart exploded")
}

const echartsFullPage = `<!DOCTYPE html>
<html>
<head><style>.container{margin:0;}</style></head>
<body>
<div class="container"><div class="item" id="chart1" style="width:100%;height:460px;"></div></div>
<script>var option1 = {};</script>
</body>
</html>`

func TestPage_Render_StandaloneDocument(t *testing.T) {
	t.Parallel()

	page := NewPage("results/cg/strong_scaling.json", "12 revisions")
	page.Add(Section{
		Title:    "Compute time",
		Subtitle: "compute_time per revision",
		Chart:    fragmentChart{html: `<div id="c1">chart</div>`},
	})

	var buf bytes.Buffer

	require.NoError(t, page.Render(&buf))

	out := buf.String()

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "echarts.min.js")
	assert.Contains(t, out, "cdn.tailwindcss.com")
	assert.Contains(t, out, "results/cg/strong_scaling.json")
	assert.Contains(t, out, "12 revisions")
	assert.Contains(t, out, "Compute time")
	assert.Contains(t, out, `<div id="c1">chart</div>`)
	assert.Contains(t, out, "Generated ")
}

func TestPage_Render_UnwrapsEchartsPages(t *testing.T) {
	t.Parallel()

	page := NewPage("Report", "")
	page.Add(Section{Title: "Chart", Chart: fragmentChart{html: echartsFullPage}})

	var buf bytes.Buffer

	require.NoError(t, page.Render(&buf))

	out := buf.String()

	// The inner chart page collapses to its fragment: one document, the
	// chart div restyled, its script kept.
	assert.Equal(t, 1, strings.Count(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `class="echart-box"`)
	assert.Contains(t, out, "var option1 = {};")
	assert.NotContains(t, out, `class="container"`)
}

func TestPage_Render_NilChartSection(t *testing.T) {
	t.Parallel()

	page := NewPage("Report", "")
	page.Add(Section{Title: "No data"})

	var buf bytes.Buffer

	require.NoError(t, page.Render(&buf))
	assert.Contains(t, buf.String(), "No data")
}

func TestPage_Render_ChartError(t *testing.T) {
	t.Parallel()

	page := NewPage("Report", "")
	page.Add(Section{Title: "Broken", Chart: failingChart{}})

	err := page.Render(io.Discard)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `render section "Broken"`)
}

func TestExtractChartContent_FullPage(t *testing.T) {
	t.Parallel()

	content := extractChartContent(echartsFullPage)

	assert.Contains(t, content, `class="echart-box"`)
	assert.Contains(t, content, `id="chart1"`)
	assert.Contains(t, content, "var option1 = {};")
	assert.NotContains(t, content, "<!DOCTYPE html>")
	assert.NotContains(t, content, "</body>")
}

func TestExtractChartContent_FragmentPassthrough(t *testing.T) {
	t.Parallel()

	fragment := `<div id="c1">already a fragment</div>`

	assert.Equal(t, fragment, extractChartContent(fragment))
}

func TestRemoveStyleTags(t *testing.T) {
	t.Parallel()

	content := `<div>a</div><style>.x{}</style><div>b</div><style>.y{}</style>`

	assert.Equal(t, "<div>a</div><div>b</div>", removeStyleTags(content))
}
