package db

import (
	"context"
	"fmt"

	"github.com/dpolishuk/contribgraph/internal/models"
	"github.com/dpolishuk/contribgraph/internal/visualization"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type GraphWriter struct {
	client *Neo4jClient
}

func NewGraphWriter(client *Neo4jClient) *GraphWriter {
	return &GraphWriter{client: client}
}

// ExportBatch holds the query parameters for one export.
type ExportBatch struct {
	RunID       string
	Entities    []map[string]any
	References  []map[string]any
	Authorships []map[string]any
}

// BuildExportBatch flattens entities into UNWIND rows. Only references to
// entities in the same set become rows, matching the rendered graph.
func BuildExportBatch(runID string, entities []*models.Entity) *ExportBatch {
	batch := &ExportBatch{
		RunID:       runID,
		Entities:    []map[string]any{},
		References:  []map[string]any{},
		Authorships: []map[string]any{},
	}

	for _, e := range entities {
		batch.Entities = append(batch.Entities, map[string]any{
			"name":             e.Name,
			"file":             derefString(e.File),
			"startLine":        derefInt(e.StartLine),
			"endLine":          derefInt(e.EndLine),
			"category":         e.ConstCategory,
			"type":             e.ConstType,
			"attributionError": e.AttributionError,
		})

		for _, c := range e.Contributors {
			batch.Authorships = append(batch.Authorships, map[string]any{
				"entity":  e.Name,
				"name":    c.Name,
				"email":   derefString(c.Email),
				"commits": c.CommitHashes,
			})
		}
	}

	for _, edge := range visualization.BuildGraph(entities).Edges {
		batch.References = append(batch.References, map[string]any{
			"from": edge.From,
			"to":   edge.To,
		})
	}

	return batch
}

// WriteEntities replaces the stored graph with entities in one transaction.
// Nodes left over from earlier runs are removed.
func (w *GraphWriter) WriteEntities(ctx context.Context, runID string, entities []*models.Entity) error {
	batch := BuildExportBatch(runID, entities)

	_, err := w.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		steps := []struct {
			name   string
			query  string
			params map[string]any
		}{
			{
				name: "entities",
				query: `
					UNWIND $rows AS row
					MERGE (e:Entity {name: row.name})
					SET e.file = row.file,
					    e.startLine = row.startLine,
					    e.endLine = row.endLine,
					    e.category = row.category,
					    e.type = row.type,
					    e.attributionError = row.attributionError,
					    e.runId = $runId
				`,
				params: map[string]any{"rows": batch.Entities, "runId": runID},
			},
			{
				name: "stale references",
				query: `
					MATCH (:Entity {runId: $runId})-[r:REFERENCES]->()
					DELETE r
				`,
				params: map[string]any{"runId": runID},
			},
			{
				name: "stale authorship",
				query: `
					MATCH ()-[a:AUTHORED]->(:Entity {runId: $runId})
					DELETE a
				`,
				params: map[string]any{"runId": runID},
			},
			{
				name: "references",
				query: `
					UNWIND $rows AS row
					MATCH (src:Entity {name: row.from})
					MATCH (dst:Entity {name: row.to})
					CREATE (src)-[:REFERENCES]->(dst)
				`,
				params: map[string]any{"rows": batch.References},
			},
			{
				name: "authorship",
				query: `
					UNWIND $rows AS row
					MATCH (e:Entity {name: row.entity})
					MERGE (c:Contributor {name: row.name})
					ON CREATE SET c.email = row.email
					CREATE (c)-[:AUTHORED {commits: row.commits, runId: $runId}]->(e)
				`,
				params: map[string]any{"rows": batch.Authorships, "runId": runID},
			},
			{
				name: "prune entities",
				query: `
					MATCH (e:Entity)
					WHERE e.runId <> $runId
					DETACH DELETE e
				`,
				params: map[string]any{"runId": runID},
			},
			{
				name: "prune contributors",
				query: `
					MATCH (c:Contributor)
					WHERE NOT (c)-[:AUTHORED]->()
					DELETE c
				`,
				params: nil,
			},
		}

		for _, step := range steps {
			if _, err := tx.Run(ctx, step.query, step.params); err != nil {
				return nil, fmt.Errorf("failed to write %s: %w", step.name, err)
			}
		}
		return nil, nil
	})

	return err
}

type GraphSummary struct {
	Entities     int64
	References   int64
	Contributors int64
}

// Summary counts what is currently stored.
func (w *GraphWriter) Summary(ctx context.Context) (*GraphSummary, error) {
	result, err := w.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			CALL { MATCH (e:Entity) RETURN count(e) AS entities }
			CALL { MATCH (:Entity)-[r:REFERENCES]->(:Entity) RETURN count(r) AS references }
			CALL { MATCH (c:Contributor) RETURN count(c) AS contributors }
			RETURN entities, references, contributors
		`
		records, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		rec, err := records.Single(ctx)
		if err != nil {
			return nil, err
		}

		entities, _ := rec.Get("entities")
		references, _ := rec.Get("references")
		contributors, _ := rec.Get("contributors")
		return &GraphSummary{
			Entities:     entities.(int64),
			References:   references.(int64),
			Contributors: contributors.(int64),
		}, nil
	})

	if err != nil {
		return nil, err
	}
	return result.(*GraphSummary), nil
}

func derefString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func derefInt(i *int) any {
	if i == nil {
		return nil
	}
	return int64(*i)
}
