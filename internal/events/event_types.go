package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/account-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventUserCreated            EventType = "user_created"
	EventPasswordResetRequested EventType = "password_reset_requested"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Login     string      `json:"login"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MailPayload carries what the mail stub needs to address a user.
type MailPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LangKey   string `json:"lang_key"`
	Key       string `json:"key,omitempty"`
}

// NewUserEvent builds an event about user with a mail payload.
func NewUserEvent(eventType EventType, user *domain.User, key string, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    user.ID,
		Login:     user.Login,
		Timestamp: at,
		Payload: MailPayload{
			Email:     user.Email,
			FirstName: user.FirstName,
			LangKey:   user.LangKey,
			Key:       key,
		},
	}
}
