package concept

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Concept is a node in the knowledge graph. Activation tracks how recently
// and how often the concept has been useful; consolidation strengthens it,
// decay weakens it.
type Concept struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Activation  float64   `json:"activation"`
	Strength    float64   `json:"strength"`
	AccessCount int       `json:"access_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Graph handles Neo4j operations for the concept knowledge graph.
type Graph struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewGraph connects to Neo4j and returns a ready concept graph.
func NewGraph(uri, user, password string, logger *zap.Logger) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Graph{driver: driver, logger: logger}, nil
}

// Close shuts down the Neo4j driver.
func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// Ping verifies the Neo4j connection.
func (g *Graph) Ping(ctx context.Context) error {
	return g.driver.VerifyConnectivity(ctx)
}

// Upsert creates the concept node, or reinforces it when a node with the
// same name already exists. Returns the stored concept's ID.
func (g *Graph) Upsert(ctx context.Context, c *Concept) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Strength == 0 {
		c.Strength = 0.5
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MERGE (c:Concept {name: $name})
		 ON CREATE SET
			c.id = $id, c.description = $desc,
			c.activation = 0.5, c.strength = $strength,
			c.access_count = 0,
			c.created_at = datetime(), c.last_activated = datetime()
		 ON MATCH SET
			c.access_count = c.access_count + 1,
			c.strength = CASE WHEN c.strength + 0.1 > 1.0 THEN 1.0 ELSE c.strength + 0.1 END,
			c.last_activated = datetime()
		 RETURN c.id AS id`,
		map[string]interface{}{
			"id":       c.ID,
			"name":     c.Name,
			"desc":     c.Description,
			"strength": c.Strength,
		})
	if err != nil {
		return "", fmt.Errorf("upsert concept %s: %w", c.Name, err)
	}
	if result.Next(ctx) {
		if v, ok := result.Record().Get("id"); ok && v != nil {
			return v.(string), nil
		}
	}
	return c.ID, nil
}

// Link creates a weighted RELATED_TO edge between two concepts by name.
// Relinking an existing pair strengthens the edge.
func (g *Graph) Link(ctx context.Context, from, to string, weight float64) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MATCH (a:Concept {name: $from}), (b:Concept {name: $to})
		 MERGE (a)-[r:RELATED_TO]->(b)
		 ON CREATE SET r.weight = $weight
		 ON MATCH SET r.weight = CASE
			WHEN r.weight + 0.1 > 1.0 THEN 1.0 ELSE r.weight + 0.1 END`,
		map[string]interface{}{"from": from, "to": to, "weight": weight})
	if err != nil {
		return fmt.Errorf("link %s -> %s: %w", from, to, err)
	}
	return nil
}

// Related returns concepts connected to the named concept, ordered by
// edge weight.
func (g *Graph) Related(ctx context.Context, name string, limit int) ([]*Concept, error) {
	if limit <= 0 {
		limit = 10
	}
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (a:Concept {name: $name})-[r:RELATED_TO]-(b:Concept)
		 RETURN b.id, b.name, b.description, b.activation, b.strength, b.access_count
		 ORDER BY r.weight DESC LIMIT $limit`,
		map[string]interface{}{"name": name, "limit": limit})
	if err != nil {
		return nil, err
	}
	return collect(ctx, result, "b")
}

// Strongest returns the most activated concepts in the graph.
func (g *Graph) Strongest(ctx context.Context, limit int) ([]*Concept, error) {
	if limit <= 0 {
		limit = 10
	}
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (c:Concept)
		 RETURN c.id, c.name, c.description, c.activation, c.strength, c.access_count
		 ORDER BY c.activation DESC, c.strength DESC LIMIT $limit`,
		map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, err
	}
	return collect(ctx, result, "c")
}

func collect(ctx context.Context, result neo4j.ResultWithContext, alias string) ([]*Concept, error) {
	var concepts []*Concept
	for result.Next(ctx) {
		rec := result.Record()
		c := &Concept{}
		if v, ok := rec.Get(alias + ".id"); ok && v != nil {
			c.ID = v.(string)
		}
		if v, ok := rec.Get(alias + ".name"); ok && v != nil {
			c.Name = v.(string)
		}
		if v, ok := rec.Get(alias + ".description"); ok && v != nil {
			c.Description = v.(string)
		}
		if v, ok := rec.Get(alias + ".activation"); ok && v != nil {
			c.Activation = v.(float64)
		}
		if v, ok := rec.Get(alias + ".strength"); ok && v != nil {
			c.Strength = v.(float64)
		}
		if v, ok := rec.Get(alias + ".access_count"); ok && v != nil {
			c.AccessCount = int(v.(int64))
		}
		concepts = append(concepts, c)
	}
	return concepts, result.Err()
}
