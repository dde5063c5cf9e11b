package services

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

type Winner struct {
	Number string
	Email  string
	// ChatID is nil for rows that never recorded a conversation.
	ChatID *int64
}

type DrawService struct {
	store ParticipantStore
	guard Guard
	intn  func(n int) int
	opts  options
}

func NewDrawService(store ParticipantStore, guard Guard, opts ...Option) *DrawService {
	return &DrawService{store: store, guard: guard, intn: rand.IntN, opts: buildOptions(opts)}
}

// DrawWinner picks one participant uniformly at random. Callers other than
// the administrator are refused before the roster is read. A drawn winner is
// final; notifying them is up to the caller.
func (s *DrawService) DrawWinner(ctx context.Context, callerID int64) (*Winner, error) {
	if err := s.guard.Authorize(callerID); err != nil {
		s.opts.metrics.PermissionDenials.Inc()
		return nil, err
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	list, err := s.store.ListAllOrderedByID(ctx)
	s.opts.metrics.ObserveStore("list", start)
	if err != nil {
		s.opts.logger.Error("draw failed", slog.String("error", err.Error()))
		return nil, storageError("list", "", err)
	}
	if len(list) == 0 {
		return nil, ErrNoParticipants
	}

	p := list[s.intn(len(list))]
	s.opts.metrics.Draws.Inc()
	s.opts.logger.Info("winner drawn", slog.String("number", p.Number), slog.Int("participants", len(list)))
	s.opts.publisher.Publish(Event{
		Type: EventWinnerDrawn,
		Data: RosterEntry{Number: p.Number, Email: p.Email},
	})
	return &Winner{Number: p.Number, Email: p.Email, ChatID: p.ChatID}, nil
}
