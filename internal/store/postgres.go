package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ajitpratap0/cinelink/internal/graph"
	"github.com/ajitpratap0/cinelink/internal/models"
)

const insertBatchSize = 500

type movieRow struct {
	ID          int64          `gorm:"primaryKey;autoIncrement:false"`
	Name        string         `gorm:"not null;index"`
	ReleaseDate string         `gorm:"not null;default:''"`
	Genres      pq.StringArray `gorm:"type:text[]"`
}

func (movieRow) TableName() string { return "cinelink_movies" }

type creditRow struct {
	MovieID    int64  `gorm:"primaryKey;autoIncrement:false"`
	Position   int    `gorm:"primaryKey;autoIncrement:false"`
	PersonID   int64  `gorm:"not null;index"`
	PersonName string `gorm:"not null"`
}

func (creditRow) TableName() string { return "cinelink_credits" }

// PostgresStore keeps movies and their credits in two tables. Derived
// indices are rebuilt on load.
type PostgresStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewPostgresStore connects to dsn and migrates the schema.
func NewPostgresStore(dsn string, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := db.AutoMigrate(&movieRow{}, &creditRow{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &PostgresStore{db: db, logger: logger}, nil
}

// Save replaces all stored movies inside one transaction.
func (p *PostgresStore) Save(ctx context.Context, s *graph.Snapshot) error {
	if s == nil {
		return fmt.Errorf("saving nil snapshot")
	}
	movies, credits := snapshotRows(s)
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM " + creditRow{}.TableName()).Error; err != nil {
			return fmt.Errorf("clearing credits: %w", err)
		}
		if err := tx.Exec("DELETE FROM " + movieRow{}.TableName()).Error; err != nil {
			return fmt.Errorf("clearing movies: %w", err)
		}
		if len(movies) > 0 {
			if err := tx.CreateInBatches(movies, insertBatchSize).Error; err != nil {
				return fmt.Errorf("inserting movies: %w", err)
			}
		}
		if len(credits) > 0 {
			if err := tx.CreateInBatches(credits, insertBatchSize).Error; err != nil {
				return fmt.Errorf("inserting credits: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.logger.Info("store: snapshot saved to postgres", "movies", len(movies), "credits", len(credits))
	return nil
}

// Load reads every movie and rebuilds the snapshot.
func (p *PostgresStore) Load(ctx context.Context) (*graph.Snapshot, error) {
	db := p.db.WithContext(ctx)
	var movies []movieRow
	if err := db.Order("id").Find(&movies).Error; err != nil {
		return nil, fmt.Errorf("reading movies: %w", err)
	}
	if len(movies) == 0 {
		return nil, ErrNotFound
	}
	var credits []creditRow
	if err := db.Order("movie_id, position").Find(&credits).Error; err != nil {
		return nil, fmt.Errorf("reading credits: %w", err)
	}
	return graph.FromMovies(rowsToMovies(movies, credits)).Snapshot(), nil
}

// Close releases the connection pool.
func (p *PostgresStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func snapshotRows(s *graph.Snapshot) ([]movieRow, []creditRow) {
	movies := make([]movieRow, 0, len(s.Movies))
	var credits []creditRow
	for _, m := range s.Movies {
		movies = append(movies, movieRow{
			ID:          m.ID,
			Name:        m.Name,
			ReleaseDate: m.ReleaseDate,
			Genres:      pq.StringArray(append([]string{}, m.Genres...)),
		})
		for i, person := range m.People {
			credits = append(credits, creditRow{
				MovieID:    m.ID,
				Position:   i,
				PersonID:   person.ID,
				PersonName: person.Name,
			})
		}
	}
	return movies, credits
}

// rowsToMovies expects credits ordered by movie and position.
func rowsToMovies(movies []movieRow, credits []creditRow) []models.Movie {
	people := make(map[int64][]models.Person, len(movies))
	for _, c := range credits {
		people[c.MovieID] = append(people[c.MovieID], models.Person{ID: c.PersonID, Name: c.PersonName})
	}
	out := make([]models.Movie, 0, len(movies))
	for _, r := range movies {
		out = append(out, models.NewMovie(r.ID, r.Name, r.ReleaseDate, []string(r.Genres), people[r.ID]))
	}
	return out
}
