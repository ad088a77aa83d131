// This file implements the PostgreSQL-backed store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "embed"

	"github.com/genetech/leadchat/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on the provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("PostgresStore.NewPostgresStore: failed to open connection", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("PostgresStore.NewPostgresStore: ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("PostgresStore.NewPostgresStore: failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("PostgresStore.NewPostgresStore: store ready")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) InsertLead(ctx context.Context, lead models.Lead) (int64, error) {
	if err := validateLead(lead); err != nil {
		return 0, err
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO leads (created_at, name, email, company_name, project_description, timeline, project_type, status, full_conversation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		lead.CreatedAt, lead.Name, lead.Email, lead.CompanyName, lead.ProjectDescription,
		lead.Timeline, lead.ProjectType, lead.Status, lead.FullConversation).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore.InsertLead: insert failed", "error", err, "email", lead.Email)
		return 0, fmt.Errorf("failed to insert lead: %w", err)
	}
	slog.Info("PostgresStore.InsertLead: lead saved", "id", id, "email", lead.Email)
	return id, nil
}

func (s *PostgresStore) InsertConsultation(ctx context.Context, c models.Consultation) (int64, error) {
	if err := validateConsultation(c); err != nil {
		return 0, err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO consultations (created_at, name, email, consultation_type, status, full_conversation)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		c.CreatedAt, c.Name, c.Email, c.ConsultationType, c.Status, c.FullConversation).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore.InsertConsultation: insert failed", "error", err, "email", c.Email)
		return 0, fmt.Errorf("failed to insert consultation: %w", err)
	}
	slog.Info("PostgresStore.InsertConsultation: consultation saved", "id", id, "email", c.Email)
	return id, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id int64) (*models.Lead, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, name, email, company_name, project_description, timeline, project_type, status, full_conversation
		FROM leads WHERE id = $1`, id)
	var l models.Lead
	err := row.Scan(&l.ID, &l.CreatedAt, &l.Name, &l.Email, &l.CompanyName,
		&l.ProjectDescription, &l.Timeline, &l.ProjectType, &l.Status, &l.FullConversation)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.GetLead: query failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get lead %d: %w", id, err)
	}
	return &l, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context) ([]models.Lead, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, name, email, company_name, project_description, timeline, project_type, status, full_conversation
		FROM leads ORDER BY created_at DESC`)
	if err != nil {
		slog.Error("PostgresStore.ListLeads: query failed", "error", err)
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(&l.ID, &l.CreatedAt, &l.Name, &l.Email, &l.CompanyName,
			&l.ProjectDescription, &l.Timeline, &l.ProjectType, &l.Status, &l.FullConversation); err != nil {
			return nil, fmt.Errorf("failed to scan lead row: %w", err)
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func (s *PostgresStore) UpdateLeadStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE leads SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		slog.Error("PostgresStore.UpdateLeadStatus: update failed", "error", err, "id", id)
		return fmt.Errorf("failed to update lead %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lead %d not found", id)
	}
	return nil
}

func (s *PostgresStore) DeleteLead(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		slog.Error("PostgresStore.DeleteLead: delete failed", "error", err, "id", id)
		return fmt.Errorf("failed to delete lead %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lead %d not found", id)
	}
	return nil
}

func (s *PostgresStore) LeadStats(ctx context.Context) (models.LeadStats, error) {
	stats := models.LeadStats{ByStatus: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&stats.Total); err != nil {
		return stats, fmt.Errorf("failed to count leads: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	daily, err := s.db.QueryContext(ctx, `
		SELECT to_char(created_at::date, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM leads
		WHERE created_at >= now() - interval '6 days'
		GROUP BY day ORDER BY day`)
	if err != nil {
		return stats, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer daily.Close()
	for daily.Next() {
		var dc models.DayCount
		if err := daily.Scan(&dc.Day, &dc.Count); err != nil {
			return stats, fmt.Errorf("failed to scan daily count: %w", err)
		}
		stats.Daily = append(stats.Daily, dc)
	}
	return stats, daily.Err()
}

func (s *PostgresStore) ListConsultations(ctx context.Context) ([]models.Consultation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, name, email, consultation_type, status, full_conversation
		FROM consultations ORDER BY created_at DESC`)
	if err != nil {
		slog.Error("PostgresStore.ListConsultations: query failed", "error", err)
		return nil, fmt.Errorf("failed to query consultations: %w", err)
	}
	defer rows.Close()

	var out []models.Consultation
	for rows.Next() {
		var c models.Consultation
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.Name, &c.Email, &c.ConsultationType, &c.Status, &c.FullConversation); err != nil {
			return nil, fmt.Errorf("failed to scan consultation row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddDocument(ctx context.Context, doc models.Document) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `INSERT INTO documents (title, content) VALUES ($1, $2) RETURNING id`, doc.Title, doc.Content).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert document: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) SearchDocuments(ctx context.Context, query string, limit int) ([]string, error) {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	var clauses []string
	var args []interface{}
	for i, term := range terms {
		clauses = append(clauses, fmt.Sprintf(`lower(content) LIKE $%d`, i+1))
		args = append(args, "%"+term+"%")
	}
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT content FROM documents WHERE %s LIMIT $%d`, strings.Join(clauses, " OR "), len(terms)+1), args...)
	if err != nil {
		slog.Error("PostgresStore.SearchDocuments: query failed", "error", err)
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	var snippets []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		snippets = append(snippets, content)
	}
	return snippets, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
