// This file implements the SQLite-backed store for leads, consultations, and
// knowledge documents.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "embed"

	"github.com/genetech/leadchat/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN is a file path to the SQLite database file; a missing parent
// directory is created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("SQLiteStore.NewSQLiteStore: creating store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
			slog.Error("SQLiteStore.NewSQLiteStore: failed to create database directory", "error", err, "dir", dir)
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("SQLiteStore.NewSQLiteStore: failed to open connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLiteStore.NewSQLiteStore: ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("SQLiteStore.NewSQLiteStore: failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("SQLiteStore.NewSQLiteStore: store ready", "dsn", dsn)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) InsertLead(ctx context.Context, lead models.Lead) (int64, error) {
	if err := validateLead(lead); err != nil {
		return 0, err
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO leads (created_at, name, email, company_name, project_description, timeline, project_type, status, full_conversation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.CreatedAt, lead.Name, lead.Email, lead.CompanyName, lead.ProjectDescription,
		lead.Timeline, lead.ProjectType, lead.Status, lead.FullConversation)
	if err != nil {
		slog.Error("SQLiteStore.InsertLead: insert failed", "error", err, "email", lead.Email)
		return 0, fmt.Errorf("failed to insert lead: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read lead id: %w", err)
	}
	slog.Info("SQLiteStore.InsertLead: lead saved", "id", id, "email", lead.Email)
	return id, nil
}

func (s *SQLiteStore) InsertConsultation(ctx context.Context, c models.Consultation) (int64, error) {
	if err := validateConsultation(c); err != nil {
		return 0, err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO consultations (created_at, name, email, consultation_type, status, full_conversation)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.CreatedAt, c.Name, c.Email, c.ConsultationType, c.Status, c.FullConversation)
	if err != nil {
		slog.Error("SQLiteStore.InsertConsultation: insert failed", "error", err, "email", c.Email)
		return 0, fmt.Errorf("failed to insert consultation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read consultation id: %w", err)
	}
	slog.Info("SQLiteStore.InsertConsultation: consultation saved", "id", id, "email", c.Email)
	return id, nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, id int64) (*models.Lead, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, name, email, company_name, project_description, timeline, project_type, status, full_conversation
		FROM leads WHERE id = ?`, id)
	var l models.Lead
	err := row.Scan(&l.ID, &l.CreatedAt, &l.Name, &l.Email, &l.CompanyName,
		&l.ProjectDescription, &l.Timeline, &l.ProjectType, &l.Status, &l.FullConversation)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.GetLead: query failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get lead %d: %w", id, err)
	}
	return &l, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context) ([]models.Lead, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, name, email, company_name, project_description, timeline, project_type, status, full_conversation
		FROM leads ORDER BY created_at DESC`)
	if err != nil {
		slog.Error("SQLiteStore.ListLeads: query failed", "error", err)
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

func (s *SQLiteStore) UpdateLeadStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE leads SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		slog.Error("SQLiteStore.UpdateLeadStatus: update failed", "error", err, "id", id)
		return fmt.Errorf("failed to update lead %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lead %d not found", id)
	}
	slog.Debug("SQLiteStore.UpdateLeadStatus: status updated", "id", id, "status", status)
	return nil
}

func (s *SQLiteStore) DeleteLead(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		slog.Error("SQLiteStore.DeleteLead: delete failed", "error", err, "id", id)
		return fmt.Errorf("failed to delete lead %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lead %d not found", id)
	}
	return nil
}

func (s *SQLiteStore) LeadStats(ctx context.Context) (models.LeadStats, error) {
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
		SELECT date(created_at) AS day, COUNT(*)
		FROM leads
		WHERE created_at >= date('now', '-6 days')
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

func (s *SQLiteStore) ListConsultations(ctx context.Context) ([]models.Consultation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, name, email, consultation_type, status, full_conversation
		FROM consultations ORDER BY created_at DESC`)
	if err != nil {
		slog.Error("SQLiteStore.ListConsultations: query failed", "error", err)
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

func (s *SQLiteStore) AddDocument(ctx context.Context, doc models.Document) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO documents (title, content) VALUES (?, ?)`, doc.Title, doc.Content)
	if err != nil {
		return 0, fmt.Errorf("failed to insert document: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) SearchDocuments(ctx context.Context, query string, limit int) ([]string, error) {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	var clauses []string
	var args []interface{}
	for _, term := range terms {
		clauses = append(clauses, `lower(content) LIKE ?`)
		args = append(args, "%"+term+"%")
	}
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx,
		`SELECT content FROM documents WHERE `+strings.Join(clauses, " OR ")+` LIMIT ?`, args...)
	if err != nil {
		slog.Error("SQLiteStore.SearchDocuments: query failed", "error", err)
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
