package service

import (
	"context"
	"errors"
	"time"

	"checkout/api/internal/domain"
	"checkout/api/internal/logger"
	"checkout/api/internal/repository"
	"checkout/pkg/utils"

	"gorm.io/gorm"
)

const (
	outboxBatch       = 20
	outboxMaxAttempts = 10
)

type OutboxEventsService struct {
	repo     repository.Events
	webhook  WebhookSender
	interval time.Duration

	db *gorm.DB
	l  logger.Logger
}

func NewOutboxEventsService(db *gorm.DB, l logger.Logger, repo repository.Events, webhook WebhookSender) *OutboxEventsService {
	return &OutboxEventsService{db: db, l: l, repo: repo, webhook: webhook, interval: 10 * time.Second}
}

// StartProcessEvents checks the events table until ctx is done.
func (s *OutboxEventsService) StartProcessEvents(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.ProcessEvents(ctx); err != nil {
			s.l.Error("process events error: "+err.Error(), logger.LS_WEBHOOKS, false)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ProcessEvents delivers one batch of pending webhooks and returns how many
// were finished.
func (s *OutboxEventsService) ProcessEvents(ctx context.Context) (int, error) {
	events, err := s.repo.FindNew(s.db, domain.EVENT_WEBHOOK, outboxBatch)
	if err != nil {
		return 0, err
	}

	var done int
	for _, event := range events {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if s.handleWebhookEvent(event) {
			done++
		}
	}
	return done, nil
}

func (s *OutboxEventsService) handleWebhookEvent(event domain.Events) bool {
	payload, err := utils.Unmarshal[domain.WebhookPayload]([]byte(event.Payload))
	if err != nil {
		s.l.Error("invalid webhook payload: "+err.Error(), logger.LS_WEBHOOKS, false, "event_id", event.ID)
		return s.finish(event)
	}

	err = s.webhook.Send(payload.Url, payload.Info)
	if err == nil || errors.Is(err, ErrWebhookAlreadySent) {
		return s.finish(event)
	}

	if event.Attempts+1 >= outboxMaxAttempts {
		s.l.Error("webhook dropped: "+err.Error(), logger.LS_WEBHOOKS, false, "event_id", event.ID, "invoice_id", payload.InvoiceID, "url", payload.Url)
		return s.finish(event)
	}

	if err := s.repo.Retry(s.db, event.ID); err != nil {
		s.l.Error("retry event error: "+err.Error(), logger.LS_WEBHOOKS, false, "event_id", event.ID)
	}
	return false
}

func (s *OutboxEventsService) finish(event domain.Events) bool {
	if err := s.repo.Done(s.db, event.ID); err != nil {
		s.l.Error("finish event error: "+err.Error(), logger.LS_WEBHOOKS, false, "event_id", event.ID)
		return false
	}
	return true
}
