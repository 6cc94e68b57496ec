package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	// LoginTopic carries a notification for every issued session token
	LoginTopic = "flowkey.login"

	// LogoutTopic carries a notification for every revoked session token
	LogoutTopic = "flowkey.logout"
)

// AuthEvent is the payload published on both topics
type AuthEvent struct {
	Address string    `json:"address"`
	TokenID string    `json:"token_id"`
	At      time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	now       func() time.Time
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		now:       time.Now,
	}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, address string, tokenID string) error {
	return p.publish(ctx, LoginTopic, address, tokenID)
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string, tokenID string) error {
	return p.publish(ctx, LogoutTopic, address, tokenID)
}

func (p *WatermillPublisher) publish(ctx context.Context, topic, address, tokenID string) error {
	event := AuthEvent{
		Address: address,
		TokenID: tokenID,
		At:      p.now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msgID := tokenID
	if msgID == "" {
		msgID = uuid.NewString()
	}
	msg := message.NewMessage(msgID, payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishLogin(context.Context, string, string) error  { return nil }
func (NopPublisher) PublishLogout(context.Context, string, string) error { return nil }
