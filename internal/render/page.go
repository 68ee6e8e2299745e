package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
)

const (
	styleTagLen     = 8 // len("</style>")
	generatedLayout = "2006-01-02 15:04:05 MST"
)

// Renderable is anything that can write itself as HTML. echarts charts
// satisfy it directly.
type Renderable interface {
	Render(w io.Writer) error
}

// Section is one titled chart block on a page.
type Section struct {
	Title    string
	Subtitle string
	Chart    Renderable
}

// Page is a standalone HTML report: a header, chart sections, and the
// echarts runtime loaded from its CDN.
type Page struct {
	Title     string
	Subtitle  string
	Generated time.Time
	Sections  []Section
}

// NewPage creates a page stamped with the current time.
func NewPage(title, subtitle string) *Page {
	return &Page{Title: title, Subtitle: subtitle, Generated: time.Now()}
}

// Add appends sections to the page.
func (p *Page) Add(sections ...Section) {
	p.Sections = append(p.Sections, sections...)
}

// Render writes the page as a complete HTML document.
func (p *Page) Render(w io.Writer) error {
	var content bytes.Buffer

	for _, section := range p.Sections {
		sectionHTML, sectionErr := renderSection(section)
		if sectionErr != nil {
			return fmt.Errorf("render section %q: %w", section.Title, sectionErr)
		}

		content.WriteString(string(sectionHTML))
	}

	html, err := renderTemplate("page.html", pageData{
		Title:     p.Title,
		Subtitle:  p.Subtitle,
		Generated: p.Generated.Format(generatedLayout),
		Content:   template.HTML(content.String()),
	})
	if err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	_, writeErr := w.Write([]byte(html))
	if writeErr != nil {
		return fmt.Errorf("writing page: %w", writeErr)
	}

	return nil
}

func renderSection(section Section) (template.HTML, error) {
	chartHTML, err := renderChart(section.Chart)
	if err != nil {
		return "", err
	}

	return renderTemplate("section.html", sectionData{
		Title:    section.Title,
		Subtitle: section.Subtitle,
		Chart:    template.HTML(chartHTML),
	})
}

// renderChart renders a chart and strips the full-page wrapping echarts
// puts around it, leaving the fragment the page template embeds.
func renderChart(chart Renderable) (string, error) {
	if chart == nil {
		return "", nil
	}

	var buf bytes.Buffer

	err := chart.Render(&buf)
	if err != nil {
		return "", fmt.Errorf("rendering chart: %w", err)
	}

	return extractChartContent(buf.String()), nil
}

// extractChartContent pulls the chart div and its script out of a full
// echarts HTML page. Content that is not a full page passes through as-is.
func extractChartContent(html string) string {
	trimmed := strings.TrimSpace(html)
	if !strings.HasPrefix(trimmed, "<!DOCTYPE") && !strings.HasPrefix(trimmed, "<html") {
		return html
	}

	start := strings.Index(html, `<div class="container">`)
	if start == -1 {
		return html
	}

	end := strings.Index(html, `</body>`)
	if end == -1 {
		return html
	}

	content := html[start:end]
	content = strings.ReplaceAll(content, `class="container"`, `class="echart-box"`)

	return removeStyleTags(content)
}

// removeStyleTags drops inline <style> blocks so the page stylesheet stays
// the only one in effect.
func removeStyleTags(content string) string {
	for {
		open := strings.Index(content, "<style>")
		if open == -1 {
			break
		}

		closing := strings.Index(content[open:], "</style>")
		if closing == -1 {
			break
		}

		content = content[:open] + content[open+closing+styleTagLen:]
	}

	return content
}
