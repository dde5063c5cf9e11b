package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/metrics"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/models"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/repository"
)

// Registration is the outcome of Register. Created is false when the email
// was already on the roster.
type Registration struct {
	Number  string
	Created bool
}

type RegistrationService struct {
	store  ParticipantStore
	writes *sync.Mutex
	opts   options
}

// NewRegistrationService builds the registration engine. writes must be the
// same mutex the roster service uses for resets.
func NewRegistrationService(store ParticipantStore, writes *sync.Mutex, opts ...Option) *RegistrationService {
	return &RegistrationService{store: store, writes: writes, opts: buildOptions(opts)}
}

// Register adds email to the roster or, when it is already there, points the
// participant at chatID. The whole lookup-number-insert sequence runs while
// holding the write lock so two new registrants never share a number.
func (s *RegistrationService) Register(ctx context.Context, email string, chatID int64) (Registration, error) {
	s.writes.Lock()
	defer s.writes.Unlock()

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	reg, err := s.register(ctx, email, chatID)
	if err != nil {
		s.opts.metrics.IncRegistration(metrics.ResultError)
		s.opts.logger.Error("registration failed",
			slog.String("email", email),
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
		return Registration{}, err
	}

	if reg.Created {
		s.opts.metrics.IncRegistration(metrics.ResultNew)
		s.opts.logger.Info("participant registered", slog.String("email", email), slog.String("number", reg.Number))
		s.opts.publisher.Publish(Event{
			Type: EventParticipantRegistered,
			Data: RosterEntry{Number: reg.Number, Email: email},
		})
	} else {
		s.opts.metrics.IncRegistration(metrics.ResultExisting)
	}
	return reg, nil
}

func (s *RegistrationService) register(ctx context.Context, email string, chatID int64) (Registration, error) {
	start := time.Now()
	existing, err := s.store.FindByEmail(ctx, email)
	s.opts.metrics.ObserveStore("find_by_email", start)
	switch {
	case err == nil:
		if existing.ChatID == nil || *existing.ChatID != chatID {
			start = time.Now()
			err = s.store.UpdateChatID(ctx, existing.ID, chatID)
			s.opts.metrics.ObserveStore("update_chat_id", start)
			if err != nil {
				return Registration{}, storageError("update chat id", email, err)
			}
		}
		return Registration{Number: existing.Number}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return Registration{}, storageError("find by email", email, err)
	}

	start = time.Now()
	maxID, err := s.store.MaxID(ctx)
	s.opts.metrics.ObserveStore("max_id", start)
	if err != nil {
		return Registration{}, storageError("max id", email, err)
	}

	nextID := maxID + 1
	p := &models.Participant{
		ID:     nextID,
		Email:  email,
		Number: models.FormatNumber(nextID),
		ChatID: &chatID,
	}
	start = time.Now()
	err = s.store.Insert(ctx, p)
	s.opts.metrics.ObserveStore("insert", start)
	if err != nil {
		return Registration{}, storageError("insert", email, err)
	}
	return Registration{Number: p.Number, Created: true}, nil
}
