package attribution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dpolishuk/contribgraph/internal/models"
)

// Attributor resolves the contributors of a line range.
type Attributor interface {
	Contributors(ctx context.Context, path string, startLine, endLine int) ([]models.Contributor, error)
}

type Pipeline struct {
	attributor Attributor
	logger     *log.Logger
}

type Stats struct {
	Total      int
	Attributed int
	Failed     int
	Skipped    int
}

func NewPipeline(attributor Attributor, logger *log.Logger) *Pipeline {
	return &Pipeline{
		attributor: attributor,
		logger:     logger,
	}
}

// Run reads entity records from inputPath, attributes them and writes the
// enriched records to outputPath.
func (p *Pipeline) Run(ctx context.Context, inputPath, outputPath string) (*Stats, error) {
	entities, err := LoadEntities(inputPath)
	if err != nil {
		return nil, err
	}

	stats, err := p.Enrich(ctx, entities)
	if err != nil {
		return nil, err
	}

	if err := WriteEntities(outputPath, entities); err != nil {
		return nil, err
	}
	return stats, nil
}

// Enrich attributes every record that has file, startLine and endLine keys,
// one at a time in input order. Records without them are left untouched. A
// failed query, or a null or mistyped range value, is stored on its record
// and does not stop the run.
func (p *Pipeline) Enrich(ctx context.Context, entities []*models.Entity) (*Stats, error) {
	stats := &Stats{Total: len(entities)}

	for i, entity := range entities {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("attribution interrupted at record %d: %w", i, err)
		}

		if !entity.HasLineRange() {
			stats.Skipped++
			p.logger.Debug("skipping record without line range", "index", i, "name", entity.Name)
			continue
		}

		file, start, end, err := entity.LineRange()
		if err != nil {
			stats.Failed++
			entity.SetAttributionError(err)
			p.logger.Warn("unusable line range", "index", i, "name", entity.Name, "error", err)
			continue
		}

		contributors, err := p.attributor.Contributors(ctx, file, start, end)
		if err != nil {
			stats.Failed++
			entity.SetAttributionError(err)
			p.logger.Warn("attribution failed", "name", entity.Name, "file", file, "error", err)
			continue
		}

		stats.Attributed++
		entity.SetContributors(contributors)
		p.logger.Debug("attributed", "name", entity.Name, "file", file,
			"lines", fmt.Sprintf("%d-%d", start, end), "contributors", len(contributors))
	}

	return stats, nil
}

// LoadEntities reads a JSON array of entity records.
func LoadEntities(path string) ([]*models.Entity, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var entities []*models.Entity
	if err := json.Unmarshal(content, &entities); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for i, e := range entities {
		if e == nil {
			return nil, fmt.Errorf("failed to parse %s: record %d is null", path, i)
		}
	}
	if entities == nil {
		entities = []*models.Entity{}
	}
	return entities, nil
}

// WriteEntities writes records as a JSON array indented by two spaces,
// replacing any existing file.
func WriteEntities(path string, entities []*models.Entity) error {
	if entities == nil {
		entities = []*models.Entity{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entities); err != nil {
		return fmt.Errorf("failed to encode entities: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
