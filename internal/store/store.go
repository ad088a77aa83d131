// Package store provides storage backends for leadchat.
//
// It persists qualified leads, consultation requests, and the knowledge-base
// documents that ground company-info answers. SQLite and PostgreSQL backends
// share one schema; an in-memory store backs the tests.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/genetech/leadchat/internal/models"
)

// Store is the persistence interface consumed by the router and the API.
//
// Insert methods validate the record before touching the database; a
// validation failure is distinguishable from a storage failure with
// errors.Is against the models error variables.
type Store interface {
	InsertLead(ctx context.Context, lead models.Lead) (int64, error)
	InsertConsultation(ctx context.Context, c models.Consultation) (int64, error)
	GetLead(ctx context.Context, id int64) (*models.Lead, error)
	ListLeads(ctx context.Context) ([]models.Lead, error)
	UpdateLeadStatus(ctx context.Context, id int64, status string) error
	DeleteLead(ctx context.Context, id int64) error
	LeadStats(ctx context.Context) (models.LeadStats, error)
	ListConsultations(ctx context.Context) ([]models.Consultation, error)
	AddDocument(ctx context.Context, doc models.Document) (int64, error)
	SearchDocuments(ctx context.Context, query string, limit int) ([]string, error)
	Close() error
}

// Opts holds configuration options for store implementations.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// NewStore selects and opens a backend from the configured options: Postgres
// for connection strings, SQLite for file paths, in-memory when no DSN is set.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return NewInMemoryStore(), nil
	}
	if DetectDSNType(cfg.DSN) == DSNTypePostgres {
		return NewPostgresStore(opts...)
	}
	return NewSQLiteStore(opts...)
}

// DSNType identifies which backend a connection string addresses.
type DSNType string

const (
	DSNTypeSQLite   DSNType = "sqlite"
	DSNTypePostgres DSNType = "postgres"
)

// DetectDSNType sniffs whether a DSN is a Postgres connection string or a
// SQLite file path.
func DetectDSNType(dsn string) DSNType {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return DSNTypePostgres
	}
	return DSNTypeSQLite
}

// searchTerms tokenizes a free-text question into lowercase keywords usable
// in LIKE clauses. Short words carry no signal and are dropped.
func searchTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, `.,!?'"()`)
		if len(f) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

func validateLead(lead models.Lead) error {
	if err := lead.Validate(); err != nil {
		return fmt.Errorf("lead validation failed: %w", err)
	}
	return nil
}

func validateConsultation(c models.Consultation) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("consultation validation failed: %w", err)
	}
	return nil
}
