package service

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/events"
)

// Mail is a rendered message handed to the sender stub.
type Mail struct {
	From    string
	To      string
	Subject string
	Link    string
	LangKey string
}

// MailService turns account events into outgoing mail. Delivery is a logged
// stub; the optional sink receives every message that would have been sent.
type MailService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.MailConfig
	sink       func(Mail)
}

// NewMailService creates the service. sink may be nil.
func NewMailService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.MailConfig, sink func(Mail)) *MailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		sink:       sink,
	}
}

// RegisterHandlers subscribes to events.
func (m *MailService) RegisterHandlers() {
	if m.dispatcher == nil {
		return
	}
	m.dispatcher.Subscribe(events.EventUserRegistered, m.handleUserRegistered)
	m.dispatcher.Subscribe(events.EventUserCreated, m.handleUserCreated)
	m.dispatcher.Subscribe(events.EventPasswordResetRequested, m.handlePasswordResetRequested)
}

func (m *MailService) handleUserRegistered(ctx context.Context, event events.Event) error {
	return m.send(ctx, event, "account activation", "/account/activate")
}

func (m *MailService) handleUserCreated(ctx context.Context, event events.Event) error {
	return m.send(ctx, event, "account creation", "/account/reset/finish")
}

func (m *MailService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	return m.send(ctx, event, "password reset", "/account/reset/finish")
}

func (m *MailService) send(_ context.Context, event events.Event, subject, path string) error {
	payload, ok := event.Payload.(events.MailPayload)
	if !ok || strings.TrimSpace(payload.Email) == "" {
		m.logger.Warn("email doesn't exist for user", zap.String("login", event.Login))
		return nil
	}

	mail := Mail{
		From:    m.cfg.From,
		To:      payload.Email,
		Subject: subject,
		Link:    m.link(path, payload.Key),
		LangKey: payload.LangKey,
	}
	m.logger.Info("sendEmailStub",
		zap.String("from", mail.From),
		zap.String("to", mail.To),
		zap.String("subject", mail.Subject),
		zap.String("lang_key", mail.LangKey),
		zap.String("event_id", event.ID))
	m.logger.Debug("sendEmailStub link", zap.String("link", mail.Link))
	if m.sink != nil {
		m.sink(mail)
	}
	return nil
}

func (m *MailService) link(path, key string) string {
	base := strings.TrimRight(m.cfg.BaseURL, "/")
	if key == "" {
		return base + path
	}
	return base + path + "?key=" + url.QueryEscape(key)
}
