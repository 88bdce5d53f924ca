// Package visualization renders enriched entities as a self-contained
// vis-network dependency graph page.
package visualization

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/dpolishuk/contribgraph/internal/models"
)

//go:embed templates/visualization.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/visualization.html.tmpl"))

type Options struct {
	Title         string
	VisNetworkURL string
}

// pageData holds data for the HTML template.
type pageData struct {
	Title         string
	VisNetworkURL string
	Data          template.JS
	Graph         template.JS
}

// Render writes the page for entities to w.
func Render(w io.Writer, entities []*models.Entity, opts Options) error {
	if entities == nil {
		entities = []*models.Entity{}
	}
	if opts.Title == "" {
		opts.Title = "Dependency Graph"
	}

	// json.Marshal escapes <, > and & so the literals are safe inside <script>.
	dataJSON, err := json.Marshal(entities)
	if err != nil {
		return fmt.Errorf("failed to encode entities: %w", err)
	}
	graphJSON, err := json.Marshal(BuildGraph(entities))
	if err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}

	return pageTemplate.Execute(w, pageData{
		Title:         opts.Title,
		VisNetworkURL: opts.VisNetworkURL,
		Data:          template.JS(dataJSON),
		Graph:         template.JS(graphJSON),
	})
}

// WriteFile renders the page and replaces path with it.
func WriteFile(path string, entities []*models.Entity, opts Options) error {
	var buf bytes.Buffer
	if err := Render(&buf, entities, opts); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
