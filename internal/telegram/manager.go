package telegram

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const pollRetryDelay = 3 * time.Second

// Updater is the part of the Bot API the manager drives.
type Updater interface {
	SetWebhook(ctx context.Context, url, secretToken string) error
	DeleteWebhook(ctx context.Context) error
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error)
}

type UpdateDispatcher interface {
	Handle(ctx context.Context, upd Update)
}

// BotManager feeds updates to the handler, either from the webhook endpoint
// or from a getUpdates loop when no public URL is configured.
type BotManager struct {
	api            Updater
	handler        UpdateDispatcher
	webhookBaseURL string
	webhookSecret  string
	pathSecret     string
	pollTimeout    int
	logger         *slog.Logger

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

func NewBotManager(
	api Updater,
	handler UpdateDispatcher,
	token string,
	webhookBaseURL string,
	webhookSecret string,
	pollTimeout int,
	logger *slog.Logger,
) *BotManager {
	return &BotManager{
		api:            api,
		handler:        handler,
		webhookBaseURL: webhookBaseURL,
		webhookSecret:  webhookSecret,
		pathSecret:     tokenSecret(token),
		pollTimeout:    pollTimeout,
		logger:         logger,
	}
}

// tokenSecret derives the webhook path segment so the token never appears in
// URLs or access logs.
func tokenSecret(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h[:16])
}

// WebhookPath is the route the webhook handler must be mounted on.
func (m *BotManager) WebhookPath() string {
	return "/webhook/bot/" + m.pathSecret
}

// Run receives updates until ctx is cancelled, then waits for in-flight
// handlers. polling forces getUpdates even when a webhook URL is configured.
func (m *BotManager) Run(ctx context.Context, polling bool) error {
	defer m.drain()

	if m.webhookBaseURL == "" || polling {
		return m.poll(ctx)
	}

	url := m.webhookBaseURL + m.WebhookPath()
	if err := m.api.SetWebhook(ctx, url, m.webhookSecret); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	m.logger.Info("webhook registered", slog.String("path", m.WebhookPath()))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.api.DeleteWebhook(stopCtx); err != nil {
		m.logger.Warn("delete webhook failed", slog.String("error", err.Error()))
	}
	m.logger.Info("bot manager stopped")
	return nil
}

func (m *BotManager) poll(ctx context.Context) error {
	if err := m.api.DeleteWebhook(ctx); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	m.logger.Info("polling for updates", slog.Int("timeout", m.pollTimeout))

	var offset int64
	for {
		updates, err := m.api.GetUpdates(ctx, offset, m.pollTimeout)
		if ctx.Err() != nil {
			m.logger.Info("bot manager stopped")
			return nil
		}
		if err != nil {
			m.logger.Warn("get updates failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, upd := range updates {
			offset = upd.UpdateID + 1
			m.dispatch(upd)
		}
	}
}

// dispatch runs the handler in its own goroutine and reports false once the
// manager has stopped. A running handler is not cancelled on shutdown; its
// store calls carry their own timeout.
func (m *BotManager) dispatch(upd Update) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		m.handler.Handle(context.Background(), upd)
	}()
	return true
}

// drain refuses further updates and waits for the running handlers.
func (m *BotManager) drain() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.inflight.Wait()
}

func (m *BotManager) HandleWebhook(c *gin.Context) {
	if c.Param("secret") != m.pathSecret {
		c.Status(http.StatusNotFound)
		return
	}

	if m.webhookSecret != "" {
		headerSecret := c.GetHeader("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(headerSecret), []byte(m.webhookSecret)) != 1 {
			c.Status(http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	var upd Update
	if err := json.Unmarshal(body, &upd); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	// Telegram redelivers on a non-2xx answer.
	if !m.dispatch(upd) {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.Status(http.StatusOK)
}
