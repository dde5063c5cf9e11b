package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/models"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/repository"
)

const testAdminID int64 = 1000

var errStoreDown = errors.New("connection refused")

// spyStore counts calls and can fail selected operations.
type spyStore struct {
	ParticipantStore
	calls atomic.Int64
	fail  map[string]error
}

func newSpyStore() *spyStore {
	return &spyStore{ParticipantStore: repository.NewInMemoryParticipantRepository(), fail: map[string]error{}}
}

func (s *spyStore) hit(op string) error {
	s.calls.Add(1)
	return s.fail[op]
}

func (s *spyStore) FindByEmail(ctx context.Context, email string) (*models.Participant, error) {
	if err := s.hit("find_by_email"); err != nil {
		return nil, err
	}
	return s.ParticipantStore.FindByEmail(ctx, email)
}

func (s *spyStore) FindByNumberOrEmail(ctx context.Context, identifier string) (*models.Participant, error) {
	if err := s.hit("find_by_number_or_email"); err != nil {
		return nil, err
	}
	return s.ParticipantStore.FindByNumberOrEmail(ctx, identifier)
}

func (s *spyStore) MaxID(ctx context.Context) (uint, error) {
	if err := s.hit("max_id"); err != nil {
		return 0, err
	}
	return s.ParticipantStore.MaxID(ctx)
}

func (s *spyStore) Insert(ctx context.Context, p *models.Participant) error {
	if err := s.hit("insert"); err != nil {
		return err
	}
	return s.ParticipantStore.Insert(ctx, p)
}

func (s *spyStore) UpdateChatID(ctx context.Context, id uint, chatID int64) error {
	if err := s.hit("update_chat_id"); err != nil {
		return err
	}
	return s.ParticipantStore.UpdateChatID(ctx, id, chatID)
}

func (s *spyStore) DeleteByID(ctx context.Context, id uint) error {
	if err := s.hit("delete"); err != nil {
		return err
	}
	return s.ParticipantStore.DeleteByID(ctx, id)
}

func (s *spyStore) ListAllOrderedByID(ctx context.Context) ([]models.Participant, error) {
	if err := s.hit("list"); err != nil {
		return nil, err
	}
	return s.ParticipantStore.ListAllOrderedByID(ctx)
}

func (s *spyStore) TruncateAndResetIdentity(ctx context.Context) error {
	if err := s.hit("truncate"); err != nil {
		return err
	}
	return s.ParticipantStore.TruncateAndResetIdentity(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// fixture wires the three services over one store the way main does.
type fixture struct {
	store        *spyStore
	publisher    *recordingPublisher
	registration *RegistrationService
	draw         *DrawService
	roster       *RosterService
}

func newFixture(chunkSize int) *fixture {
	store := newSpyStore()
	pub := &recordingPublisher{}
	guard := NewGuard(testAdminID)
	var writes sync.Mutex
	return &fixture{
		store:        store,
		publisher:    pub,
		registration: NewRegistrationService(store, &writes, WithPublisher(pub)),
		draw:         NewDrawService(store, guard, WithPublisher(pub)),
		roster:       NewRosterService(store, guard, &writes, chunkSize, WithPublisher(pub)),
	}
}
