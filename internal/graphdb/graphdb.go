// Package graphdb mirrors the concept graph into Neo4j and answers the
// one-hop prerequisite query there.
package graphdb

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/abhisek/kgtutor/internal/concept"
	"github.com/abhisek/kgtutor/internal/logger"
)

// Config is filled by cleanenv from the `graph.neo4j` section.
type Config struct {
	URI      string        `yaml:"uri" env:"KGTUTOR_NEO4J_URI" env-default:""`
	User     string        `yaml:"user" env:"KGTUTOR_NEO4J_USER" env-default:"neo4j"`
	Password string        `yaml:"-" env:"KGTUTOR_NEO4J_PASSWORD"`
	Database string        `yaml:"database" env:"KGTUTOR_NEO4J_DATABASE" env-default:""`
	Timeout  time.Duration `yaml:"timeout" env:"KGTUTOR_NEO4J_TIMEOUT" env-default:"10s"`
}

// Client talks to one Neo4j database.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	log      *logger.Logger
}

// New connects and verifies connectivity. It returns nil, nil when no URI
// is configured.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.URI == "" {
		return nil, nil
	}
	if log == nil {
		log = logger.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""), func(c *neo4j.Config) {
		c.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("graphdb: init driver: %w", err)
	}

	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graphdb: verify connectivity: %w", err)
	}

	return &Client{driver: driver, database: cfg.Database, log: log.With("client", "neo4j")}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

// Sync replaces the mirrored graph with concepts and relationships.
// DEPENDS_ON edges become :DEPENDS_ON relationships; every other type is
// kept as :RELATED with its label in the type property.
func (c *Client) Sync(ctx context.Context, concepts []concept.Concept, rels []concept.Relationship) error {
	nodes := conceptNodes(concepts)
	dependsOn, related := partitionEdges(rels)
	ids := make([]int64, len(concepts))
	for i, cc := range concepts {
		ids[i] = cc.ID
	}
	relIDs := make([]int64, len(rels))
	for i, r := range rels {
		relIDs[i] = r.ID
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.database,
	})
	defer session.Close(ctx)

	// Restricted users may not be allowed to create constraints.
	if res, err := session.Run(ctx, `CREATE CONSTRAINT kg_concept_id IF NOT EXISTS FOR (c:Concept) REQUIRE c.id IS UNIQUE`, nil); err != nil {
		c.log.Warn("neo4j constraint init failed (continuing)", "error", err)
	} else {
		_, _ = res.Consume(ctx)
	}

	steps := []struct {
		query  string
		params map[string]any
	}{
		{`
UNWIND $nodes AS n
MERGE (c:Concept {id: n.id})
SET c.name = n.name, c.description = n.description
`, map[string]any{"nodes": nodes}},
		{`
MATCH (c:Concept) WHERE NOT c.id IN $ids
DETACH DELETE c
`, map[string]any{"ids": ids}},
		{`
MATCH (:Concept)-[e:DEPENDS_ON|RELATED]->(:Concept) WHERE NOT e.rel_id IN $rel_ids
DELETE e
`, map[string]any{"rel_ids": relIDs}},
		{`
UNWIND $rels AS r
MATCH (a:Concept {id: r.source_id})
MATCH (b:Concept {id: r.target_id})
MERGE (a)-[e:DEPENDS_ON {rel_id: r.id}]->(b)
`, map[string]any{"rels": dependsOn}},
		{`
UNWIND $rels AS r
MATCH (a:Concept {id: r.source_id})
MATCH (b:Concept {id: r.target_id})
MERGE (a)-[e:RELATED {rel_id: r.id}]->(b)
SET e.type = r.type
`, map[string]any{"rels": related}},
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, s := range steps {
			res, err := tx.Run(ctx, s.query, s.params)
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("graphdb: sync: %w", err)
	}

	c.log.Info("concept graph synced", "concepts", len(nodes), "depends_on", len(dependsOn), "related", len(related))
	return nil
}

// Prerequisites returns the DEPENDS_ON targets of conceptID ordered by id.
func (c *Client) Prerequisites(ctx context.Context, conceptID int64) ([]concept.Concept, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (:Concept {id: $id})-[:DEPENDS_ON]->(p:Concept)
RETURN DISTINCT p.id AS id, p.name AS name, coalesce(p.description, '') AS description
ORDER BY id
`, map[string]any{"id": conceptID})
		if err != nil {
			return nil, err
		}

		var found []concept.Concept
		for res.Next(ctx) {
			cc, err := recordConcept(res.Record())
			if err != nil {
				return nil, err
			}
			found = append(found, cc)
		}
		return found, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("graphdb: prerequisites of %d: %w", conceptID, err)
	}
	found, _ := out.([]concept.Concept)
	return found, nil
}

func recordConcept(rec *neo4j.Record) (concept.Concept, error) {
	id, _, err := neo4j.GetRecordValue[int64](rec, "id")
	if err != nil {
		return concept.Concept{}, err
	}
	name, _, err := neo4j.GetRecordValue[string](rec, "name")
	if err != nil {
		return concept.Concept{}, err
	}
	desc, _, err := neo4j.GetRecordValue[string](rec, "description")
	if err != nil {
		return concept.Concept{}, err
	}
	return concept.Concept{ID: id, Name: name, Description: desc}, nil
}

func conceptNodes(concepts []concept.Concept) []map[string]any {
	nodes := make([]map[string]any, 0, len(concepts))
	for _, c := range concepts {
		nodes = append(nodes, map[string]any{
			"id":          c.ID,
			"name":        c.Name,
			"description": c.Description,
		})
	}
	return nodes
}

// partitionEdges splits relationships into DEPENDS_ON edges and the rest,
// as Cypher parameter maps. Self-loops are skipped.
func partitionEdges(rels []concept.Relationship) (dependsOn, related []map[string]any) {
	dependsOn = []map[string]any{}
	related = []map[string]any{}
	for _, r := range rels {
		if r.SourceID == r.TargetID {
			continue
		}
		rec := map[string]any{
			"id":        r.ID,
			"source_id": r.SourceID,
			"target_id": r.TargetID,
			"type":      r.Type.Label(),
		}
		if r.Type.IsDependsOn() {
			dependsOn = append(dependsOn, rec)
		} else {
			related = append(related, rec)
		}
	}
	return dependsOn, related
}
