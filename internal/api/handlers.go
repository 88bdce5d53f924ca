package api

import (
	"errors"
	"io/fs"
	"os"

	"github.com/dpolishuk/contribgraph/internal/attribution"
	"github.com/dpolishuk/contribgraph/internal/config"
	"github.com/dpolishuk/contribgraph/internal/models"
	"github.com/dpolishuk/contribgraph/internal/visualization"
	"github.com/gofiber/fiber/v3"
)

// Handler serves the files written by a generate run. Files are re-read on
// every request so a new run shows up without a restart.
type Handler struct {
	cfg *config.Config
}

func NewHandler(cfg *config.Config) *Handler {
	return &Handler{cfg: cfg}
}

func (h *Handler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "contribgraph",
	})
}

// GetVisualization returns the generated HTML page
func (h *Handler) GetVisualization(c fiber.Ctx) error {
	content, err := os.ReadFile(h.cfg.VisualizationPath())
	if err != nil {
		return fileError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(content)
}

// ListEntities returns all enriched records
func (h *Handler) ListEntities(c fiber.Ctx) error {
	entities, err := h.loadEntities()
	if err != nil {
		return fileError(c, err)
	}
	return c.JSON(entities)
}

// GetEntity returns a single record by name
func (h *Handler) GetEntity(c fiber.Ctx) error {
	name := c.Params("name")

	entities, err := h.loadEntities()
	if err != nil {
		return fileError(c, err)
	}
	for _, e := range entities {
		if e.Name == name {
			return c.JSON(e)
		}
	}
	return c.Status(404).JSON(fiber.Map{"error": "entity not found"})
}

// GetGraph returns the nodes and edges the page draws
func (h *Handler) GetGraph(c fiber.Ctx) error {
	entities, err := h.loadEntities()
	if err != nil {
		return fileError(c, err)
	}
	return c.JSON(visualization.BuildGraph(entities))
}

func (h *Handler) loadEntities() ([]*models.Entity, error) {
	return attribution.LoadEntities(h.cfg.ContributorsPath())
}

func fileError(c fiber.Ctx, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return c.Status(404).JSON(fiber.Map{"error": "output not generated yet"})
	}
	return c.Status(500).JSON(fiber.Map{"error": err.Error()})
}
