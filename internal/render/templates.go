package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sync"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	pageTemplates *template.Template
	templatesOnce sync.Once
	errTemplates  error
)

// getTemplates parses the embedded templates once.
func getTemplates() (*template.Template, error) {
	templatesOnce.Do(func() {
		var parseErr error

		pageTemplates, parseErr = template.New("").ParseFS(templateFS, "templates/*.html")
		if parseErr != nil {
			errTemplates = fmt.Errorf("parsing templates: %w", parseErr)
		}
	})

	return pageTemplates, errTemplates
}

// renderTemplate renders one named template.
func renderTemplate(name string, data any) (template.HTML, error) {
	tmpl, err := getTemplates()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer

	execErr := tmpl.ExecuteTemplate(&buf, name, data)
	if execErr != nil {
		return "", fmt.Errorf("executing template %s: %w", name, execErr)
	}

	return template.HTML(buf.String()), nil
}

// pageData holds data for the page template.
type pageData struct {
	Title     string
	Subtitle  string
	Generated string
	Content   template.HTML
}

// sectionData holds data for the section template.
type sectionData struct {
	Title    string
	Subtitle string
	Chart    template.HTML
}
