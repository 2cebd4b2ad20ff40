package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/open311-service/internal/config"
	"github.com/spec-kit/open311-service/internal/domain"
	"github.com/spec-kit/open311-service/internal/events"
)

// NotificationService emits reporter notifications for lifecycle events.
// Delivery is a best-effort side channel: transports are stubbed and
// failures never reach the publishing caller.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRequestCreated, n.handleRequestCreated)
	n.dispatcher.Subscribe(events.EventChangelogRecorded, n.handleChangelogRecorded)
	n.dispatcher.Subscribe(events.EventRequestResolved, n.handleRequestResolved)
	n.dispatcher.Subscribe(events.EventRequestReopened, n.handleRequestReopened)
}

func (n *NotificationService) handleRequestCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("RequestCreated", zap.String("request_id", event.RequestID), zap.Any("payload", event.Payload))
	n.sendSMSStub(ctx, event)
	n.sendEmailStub(ctx, event)
	return nil
}

func (n *NotificationService) handleChangelogRecorded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ChangelogRecordedPayload)
	if ok && payload.Visibility != domain.VisibilityPublic {
		// Private observations stay internal.
		return nil
	}
	n.logger.Info("ChangelogRecorded", zap.String("request_id", event.RequestID), zap.Any("payload", event.Payload))
	n.sendSMSStub(ctx, event)
	return nil
}

func (n *NotificationService) handleRequestResolved(ctx context.Context, event events.Event) error {
	n.logger.Info("RequestResolved", zap.String("request_id", event.RequestID), zap.Any("payload", event.Payload))
	n.sendSMSStub(ctx, event)
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleRequestReopened(ctx context.Context, event events.Event) error {
	n.logger.Info("RequestReopened", zap.String("request_id", event.RequestID), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) sendSMSStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.SMSFrom) == "" {
		return
	}
	n.logger.Debug("sendSMSStub",
		zap.String("from", n.cfg.SMSFrom),
		zap.String("request_id", event.RequestID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendEmailStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("request_id", event.RequestID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("request_id", event.RequestID),
		zap.String("event_type", string(event.Type)))
}
