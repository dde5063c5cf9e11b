package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/metrics"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/models"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/repository"
)

// ParticipantStore is the persistence contract the services rely on. Lookups
// return repository.ErrNotFound for missing rows.
type ParticipantStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Participant, error)
	FindByNumberOrEmail(ctx context.Context, identifier string) (*models.Participant, error)
	MaxID(ctx context.Context) (uint, error)
	Insert(ctx context.Context, p *models.Participant) error
	UpdateChatID(ctx context.Context, id uint, chatID int64) error
	DeleteByID(ctx context.Context, id uint) error
	ListAllOrderedByID(ctx context.Context) ([]models.Participant, error)
	TruncateAndResetIdentity(ctx context.Context) error
}

var (
	_ ParticipantStore = (*repository.ParticipantRepository)(nil)
	_ ParticipantStore = (*repository.InMemoryParticipantRepository)(nil)
)

const defaultStoreTimeout = 5 * time.Second

type options struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher EventPublisher
	timeout   time.Duration
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithPublisher(p EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithStoreTimeout bounds the store calls of a single operation.
func WithStoreTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		publisher: nopPublisher{},
		timeout:   defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}
	return o
}

func (o options) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.timeout)
}

// Guard decides who may run administrator commands.
type Guard struct {
	adminID int64
}

func NewGuard(adminID int64) Guard {
	return Guard{adminID: adminID}
}

func (g Guard) IsAdmin(userID int64) bool {
	return g.adminID != 0 && userID == g.adminID
}

func (g Guard) Authorize(userID int64) error {
	if !g.IsAdmin(userID) {
		return ErrPermissionDenied
	}
	return nil
}

func (g Guard) AdminID() int64 {
	return g.adminID
}
