package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/models"
)

// Neo4jStore keeps the graph natively: (:Person)-[:CREDITED_IN {position}]->(:Movie).
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewNeo4jStore connects to uri and verifies connectivity. An empty database
// selects the server default.
func NewNeo4jStore(ctx context.Context, uri, username, password, database string, logger *slog.Logger) (*Neo4jStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j at %s: %w", uri, err)
	}
	st := &Neo4jStore{driver: driver, database: database, logger: logger}
	if err := st.ensureSchema(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return st, nil
}

func (n *Neo4jStore) ensureSchema(ctx context.Context) error {
	for _, q := range []string{
		"CREATE CONSTRAINT cinelink_movie_id IF NOT EXISTS FOR (m:Movie) REQUIRE m.id IS UNIQUE",
		"CREATE INDEX cinelink_person_id IF NOT EXISTS FOR (p:Person) ON (p.id)",
	} {
		if _, err := neo4j.ExecuteQuery(ctx, n.driver, q, nil, neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(n.database)); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

const (
	neo4jClear       = "MATCH (n) WHERE n:Movie OR n:Person DETACH DELETE n"
	neo4jMergeMovies = `UNWIND $movies AS m
MERGE (mv:Movie {id: m.id})
SET mv.name = m.name, mv.release_date = m.release_date, mv.genres = m.genres`
	neo4jMergeCredits = `UNWIND $credits AS c
MATCH (mv:Movie {id: c.movie_id})
MERGE (p:Person {id: c.person_id, name: c.person_name})
MERGE (p)-[r:CREDITED_IN]->(mv)
SET r.position = c.position`
	neo4jLoadMovies = `MATCH (mv:Movie)
OPTIONAL MATCH (p:Person)-[r:CREDITED_IN]->(mv)
RETURN mv.id AS id, mv.name AS name, mv.release_date AS release_date, mv.genres AS genres,
       collect({id: p.id, name: p.name, position: r.position}) AS people
ORDER BY id`
)

// Save replaces the stored graph in one write transaction.
func (n *Neo4jStore) Save(ctx context.Context, s *graph.Snapshot) error {
	if s == nil {
		return fmt.Errorf("saving nil snapshot")
	}
	movies, credits := neo4jParams(s)
	session := n.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: n.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, neo4jClear, nil); err != nil {
			return nil, fmt.Errorf("clearing graph: %w", err)
		}
		if _, err := tx.Run(ctx, neo4jMergeMovies, map[string]any{"movies": movies}); err != nil {
			return nil, fmt.Errorf("writing movies: %w", err)
		}
		if _, err := tx.Run(ctx, neo4jMergeCredits, map[string]any{"credits": credits}); err != nil {
			return nil, fmt.Errorf("writing credits: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("saving snapshot to neo4j: %w", err)
	}
	n.logger.Info("store: snapshot saved to neo4j", "movies", len(movies), "credits", len(credits))
	return nil
}

// Load reads every movie node with its credits and rebuilds the snapshot.
func (n *Neo4jStore) Load(ctx context.Context) (*graph.Snapshot, error) {
	res, err := neo4j.ExecuteQuery(ctx, n.driver, neo4jLoadMovies, nil, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(n.database), neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return nil, fmt.Errorf("reading graph: %w", err)
	}
	if len(res.Records) == 0 {
		return nil, ErrNotFound
	}
	movies := make([]models.Movie, 0, len(res.Records))
	for _, rec := range res.Records {
		m, err := recordToMovie(rec.AsMap())
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return graph.FromMovies(movies).Snapshot(), nil
}

// Close closes the driver.
func (n *Neo4jStore) Close() error {
	return n.driver.Close(context.Background())
}

func neo4jParams(s *graph.Snapshot) ([]map[string]any, []map[string]any) {
	movies := make([]map[string]any, 0, len(s.Movies))
	var credits []map[string]any
	for _, m := range s.Movies {
		genres := m.Genres
		if genres == nil {
			genres = []string{}
		}
		movies = append(movies, map[string]any{
			"id":           m.ID,
			"name":         m.Name,
			"release_date": m.ReleaseDate,
			"genres":       genres,
		})
		for i, p := range m.People {
			credits = append(credits, map[string]any{
				"movie_id":    m.ID,
				"person_id":   p.ID,
				"person_name": p.Name,
				"position":    int64(i),
			})
		}
	}
	return movies, credits
}

type creditValue struct {
	person   models.Person
	position int64
}

// recordToMovie decodes one row of neo4jLoadMovies. OPTIONAL MATCH yields a
// single all-null credit for movies without people; it is dropped.
func recordToMovie(row map[string]any) (models.Movie, error) {
	id, ok := row["id"].(int64)
	if !ok {
		return models.Movie{}, fmt.Errorf("movie record has no integer id: %v", row["id"])
	}
	name, _ := row["name"].(string)
	date, _ := row["release_date"].(string)

	var genres []string
	if raw, ok := row["genres"].([]any); ok {
		for _, g := range raw {
			if s, ok := g.(string); ok {
				genres = append(genres, s)
			}
		}
	}

	var credits []creditValue
	if raw, ok := row["people"].([]any); ok {
		for _, item := range raw {
			c, ok := item.(map[string]any)
			if !ok {
				continue
			}
			pid, ok := c["id"].(int64)
			if !ok {
				continue
			}
			pname, _ := c["name"].(string)
			pos, _ := c["position"].(int64)
			credits = append(credits, creditValue{person: models.Person{ID: pid, Name: pname}, position: pos})
		}
	}
	sort.SliceStable(credits, func(i, j int) bool { return credits[i].position < credits[j].position })
	people := make([]models.Person, 0, len(credits))
	for _, c := range credits {
		people = append(people, c.person)
	}
	return models.NewMovie(id, name, date, genres, people), nil
}
