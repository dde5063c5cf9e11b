package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/models"
)

// InMemoryParticipantRepository keeps the roster in process memory for tests
// and DB_DRIVER=memory. It honors the same contract as the gorm repository.
type InMemoryParticipantRepository struct {
	mu     sync.RWMutex
	rows   map[uint]models.Participant
	lastID uint
}

func NewInMemoryParticipantRepository() *InMemoryParticipantRepository {
	return &InMemoryParticipantRepository{rows: make(map[uint]models.Participant)}
}

func (r *InMemoryParticipantRepository) FindByEmail(_ context.Context, email string) (*models.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.rows {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryParticipantRepository) FindByNumberOrEmail(_ context.Context, identifier string) (*models.Participant, error) {
	key := strings.ToLower(strings.TrimSpace(identifier))
	for _, p := range r.sorted() {
		if strings.ToLower(p.Number) == key || strings.ToLower(p.Email) == key {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// MaxID returns the highest id assigned since the last reset, including ids
// of removed rows.
func (r *InMemoryParticipantRepository) MaxID(_ context.Context) (uint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastID, nil
}

func (r *InMemoryParticipantRepository) Insert(_ context.Context, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == 0 {
		p.ID = r.lastID + 1
	}
	if _, ok := r.rows[p.ID]; ok {
		return fmt.Errorf("insert id %d: %w", p.ID, ErrConflict)
	}
	for _, existing := range r.rows {
		if existing.Email == p.Email || existing.Number == p.Number {
			return fmt.Errorf("insert %s: %w", p.Email, ErrConflict)
		}
	}

	r.rows[p.ID] = *p
	r.lastID = max(r.lastID, p.ID)
	return nil
}

func (r *InMemoryParticipantRepository) UpdateChatID(_ context.Context, id uint, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	p.ChatID = &chatID
	r.rows[id] = p
	return nil
}

func (r *InMemoryParticipantRepository) DeleteByID(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *InMemoryParticipantRepository) ListAllOrderedByID(_ context.Context) ([]models.Participant, error) {
	return r.sorted(), nil
}

func (r *InMemoryParticipantRepository) TruncateAndResetIdentity(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = make(map[uint]models.Participant)
	r.lastID = 0
	return nil
}

func (r *InMemoryParticipantRepository) sorted() []models.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]models.Participant, 0, len(r.rows))
	for _, p := range r.rows {
		list = append(list, p)
	}
	slices.SortFunc(list, func(a, b models.Participant) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return list
}
