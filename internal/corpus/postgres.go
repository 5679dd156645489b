package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/postgres"
)

// PostgresSource reads a collection from a table with text columns name and
// body. Rows come back ordered by name.
type PostgresSource struct {
	client *postgres.Client
	table  string
	quoted string
	logger *slog.Logger
}

// quoteTable quotes each dot-separated part of a possibly schema-qualified
// table name.
func quoteTable(table string) (string, error) {
	parts := strings.Split(table, ".")
	for i, part := range parts {
		if part == "" {
			return "", fmt.Errorf("corpus table name %q has an empty part: %w", table, apperrors.ErrInvalidInput)
		}
		parts[i] = pq.QuoteIdentifier(part)
	}
	return strings.Join(parts, "."), nil
}

func NewPostgresSource(cfg config.PostgresConfig, table string) (*PostgresSource, error) {
	if table == "" {
		table = "documents"
	}
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	client, err := postgres.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting corpus database: %w", err)
	}
	return &PostgresSource{
		client: client,
		table:  table,
		quoted: quoted,
		logger: logger.Component("corpus-postgres"),
	}, nil
}

func (s *PostgresSource) Load(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := s.client.ReadTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, fmt.Sprintf("SELECT name, body FROM %s ORDER BY name", s.quoted))
		if err != nil {
			return fmt.Errorf("querying %s: %w", s.table, err)
		}
		defer rows.Close()
		for rows.Next() {
			var doc Document
			if err := rows.Scan(&doc.Name, &doc.Body); err != nil {
				return fmt.Errorf("scanning %s row: %w", s.table, err)
			}
			docs = append(docs, doc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if err := validate(docs, s.table); err != nil {
		return nil, err
	}
	s.logger.Info("corpus loaded", "table", s.table, "documents", len(docs))
	return docs, nil
}

func (s *PostgresSource) Close() error {
	return s.client.Close()
}
