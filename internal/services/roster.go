package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/models"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/repository"
)

const DefaultChunkSize = 4000

// RosterService holds the administrator-only roster operations. Every method
// checks the caller before it touches the store.
type RosterService struct {
	store     ParticipantStore
	guard     Guard
	writes    *sync.Mutex
	chunkSize int
	opts      options
}

func NewRosterService(store ParticipantStore, guard Guard, writes *sync.Mutex, chunkSize int, opts ...Option) *RosterService {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &RosterService{
		store:     store,
		guard:     guard,
		writes:    writes,
		chunkSize: chunkSize,
		opts:      buildOptions(opts),
	}
}

func (s *RosterService) authorize(callerID int64) error {
	if err := s.guard.Authorize(callerID); err != nil {
		s.opts.metrics.PermissionDenials.Inc()
		return err
	}
	return nil
}

// List returns the roster ordered by id.
func (s *RosterService) List(ctx context.Context, callerID int64) ([]models.Participant, error) {
	if err := s.authorize(callerID); err != nil {
		return nil, err
	}
	return s.list(ctx)
}

func (s *RosterService) list(ctx context.Context) ([]models.Participant, error) {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	list, err := s.store.ListAllOrderedByID(ctx)
	s.opts.metrics.ObserveStore("list", start)
	if err != nil {
		s.opts.logger.Error("list roster failed", slog.String("error", err.Error()))
		return nil, storageError("list", "", err)
	}
	return list, nil
}

// Export renders the roster as "<number> - <email>" lines split into chunks
// no longer than the configured message bound. An empty roster yields no
// chunks.
func (s *RosterService) Export(ctx context.Context, callerID int64) ([]string, error) {
	if err := s.authorize(callerID); err != nil {
		return nil, err
	}
	list, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	return SplitChunks(FormatExport(list), s.chunkSize), nil
}

func FormatExport(list []models.Participant) string {
	lines := make([]string, len(list))
	for i, p := range list {
		lines[i] = fmt.Sprintf("%s - %s", p.Number, p.Email)
	}
	return strings.Join(lines, "\n")
}

// Remove deletes the participant whose number or email equals identifier,
// ignoring case. Remaining participants keep their numbers.
func (s *RosterService) Remove(ctx context.Context, callerID int64, identifier string) (*models.Participant, error) {
	if err := s.authorize(callerID); err != nil {
		return nil, err
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	p, err := s.store.FindByNumberOrEmail(ctx, identifier)
	s.opts.metrics.ObserveStore("find_by_number_or_email", start)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.opts.logger.Error("remove lookup failed", slog.String("identifier", identifier), slog.String("error", err.Error()))
		return nil, storageError("find by number or email", identifier, err)
	}

	start = time.Now()
	err = s.store.DeleteByID(ctx, p.ID)
	s.opts.metrics.ObserveStore("delete", start)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.opts.logger.Error("remove failed", slog.String("identifier", identifier), slog.String("error", err.Error()))
		return nil, storageError("delete", identifier, err)
	}

	s.opts.metrics.Removals.Inc()
	s.opts.logger.Info("participant removed", slog.String("number", p.Number), slog.String("email", p.Email))
	s.opts.publisher.Publish(Event{
		Type: EventParticipantRemoved,
		Data: RosterEntry{Number: p.Number, Email: p.Email},
	})
	return p, nil
}

// Reset wipes the roster and restarts numbering. It shares the write lock
// with registration.
func (s *RosterService) Reset(ctx context.Context, callerID int64) error {
	if err := s.authorize(callerID); err != nil {
		return err
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := s.store.TruncateAndResetIdentity(ctx)
	s.opts.metrics.ObserveStore("truncate", start)
	if err != nil {
		s.opts.logger.Error("reset failed", slog.String("error", err.Error()))
		return storageError("truncate", "", err)
	}

	s.opts.metrics.Resets.Inc()
	s.opts.logger.Warn("roster reset")
	s.opts.publisher.Publish(Event{Type: EventRosterReset})
	return nil
}

// CheckDuplicates returns the suspicious pairs of the current roster.
func (s *RosterService) CheckDuplicates(ctx context.Context, callerID int64) (iter.Seq[SuspiciousPair], error) {
	if err := s.authorize(callerID); err != nil {
		return nil, err
	}
	list, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	return FindSuspiciousPairs(list), nil
}
