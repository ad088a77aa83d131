// This file implements an in-memory store used by tests and local development.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/genetech/leadchat/internal/models"
)

// InMemoryStore keeps all records in process memory.
type InMemoryStore struct {
	mu            sync.RWMutex
	leads         []models.Lead
	consultations []models.Consultation
	documents     []models.Document
	nextLead      int64
	nextConsult   int64
	nextDoc       int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextLead: 1, nextConsult: 1, nextDoc: 1}
}

func (s *InMemoryStore) InsertLead(ctx context.Context, lead models.Lead) (int64, error) {
	if err := validateLead(lead); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	lead.ID = s.nextLead
	s.nextLead++
	s.leads = append(s.leads, lead)
	return lead.ID, nil
}

func (s *InMemoryStore) InsertConsultation(ctx context.Context, c models.Consultation) (int64, error) {
	if err := validateConsultation(c); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.ID = s.nextConsult
	s.nextConsult++
	s.consultations = append(s.consultations, c)
	return c.ID, nil
}

func (s *InMemoryStore) GetLead(ctx context.Context, id int64) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.leads {
		if l.ID == id {
			out := l
			return &out, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) ListLeads(ctx context.Context) ([]models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Lead, len(s.leads))
	copy(out, s.leads)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) UpdateLeadStatus(ctx context.Context, id int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.leads {
		if s.leads[i].ID == id {
			s.leads[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("lead %d not found", id)
}

func (s *InMemoryStore) DeleteLead(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.leads {
		if s.leads[i].ID == id {
			s.leads = append(s.leads[:i], s.leads[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("lead %d not found", id)
}

func (s *InMemoryStore) LeadStats(ctx context.Context) (models.LeadStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.LeadStats{Total: len(s.leads), ByStatus: make(map[string]int)}
	daily := make(map[string]int)
	cutoff := time.Now().UTC().AddDate(0, 0, -6).Truncate(24 * time.Hour)
	for _, l := range s.leads {
		stats.ByStatus[l.Status]++
		if !l.CreatedAt.Before(cutoff) {
			daily[l.CreatedAt.Format("2006-01-02")]++
		}
	}
	days := make([]string, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		stats.Daily = append(stats.Daily, models.DayCount{Day: d, Count: daily[d]})
	}
	return stats, nil
}

func (s *InMemoryStore) ListConsultations(ctx context.Context) ([]models.Consultation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Consultation, len(s.consultations))
	copy(out, s.consultations)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) AddDocument(ctx context.Context, doc models.Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.ID = s.nextDoc
	s.nextDoc++
	s.documents = append(s.documents, doc)
	return doc.ID, nil
}

func (s *InMemoryStore) SearchDocuments(ctx context.Context, query string, limit int) ([]string, error) {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var snippets []string
	for _, doc := range s.documents {
		content := strings.ToLower(doc.Content)
		for _, term := range terms {
			if strings.Contains(content, term) {
				snippets = append(snippets, doc.Content)
				break
			}
		}
		if len(snippets) == limit {
			break
		}
	}
	return snippets, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
