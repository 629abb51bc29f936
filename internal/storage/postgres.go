package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"vaani/pkg/logger"
	"vaani/pkg/model"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// ErrNotFound means no stored translation carries the requested ID.
var ErrNotFound = errors.New("translation not found")

// PostgresStore is the server-side audit log of completed translations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(databaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database ready")

	return &PostgresStore{pool: pool}, nil
}

func runMigrations(databaseURL string) error {
	migrationsPath, err := filepath.Abs("migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	connConfig, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	db := stdlib.OpenDB(*connConfig)
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", filepath.ToSlash(migrationsPath)),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// SaveTranslation inserts one audit row.
func (s *PostgresStore) SaveTranslation(ctx context.Context, record *model.TranslationRecord) error {
	query := `
		INSERT INTO translations (
			id, original, translated, source_language, target_language, audio_key, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	_, err := s.pool.Exec(ctx, query,
		record.ID,
		record.Original,
		record.Translated,
		record.SourceLanguage,
		record.TargetLanguage,
		record.AudioKey,
		record.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save translation: %w", err)
	}

	return nil
}

// GetTranslation retrieves one audit row by ID.
func (s *PostgresStore) GetTranslation(ctx context.Context, id string) (*model.TranslationRecord, error) {
	query := `
		SELECT id, original, translated, source_language, target_language, audio_key, created_at
		FROM translations
		WHERE id = $1`

	var record model.TranslationRecord
	row := s.pool.QueryRow(ctx, query, id)

	err := row.Scan(
		&record.ID,
		&record.Original,
		&record.Translated,
		&record.SourceLanguage,
		&record.TargetLanguage,
		&record.AudioKey,
		&record.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get translation: %w", err)
	}

	return &record, nil
}

// RecentTranslations lists the newest audit rows, most recent first.
func (s *PostgresStore) RecentTranslations(ctx context.Context, limit int) ([]*model.TranslationRecord, error) {
	query := `
		SELECT id, original, translated, source_language, target_language, audio_key, created_at
		FROM translations
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	defer rows.Close()

	var records []*model.TranslationRecord
	for rows.Next() {
		var record model.TranslationRecord
		err := rows.Scan(
			&record.ID,
			&record.Original,
			&record.Translated,
			&record.SourceLanguage,
			&record.TargetLanguage,
			&record.AudioKey,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan translation: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate translations: %w", err)
	}

	return records, nil
}
