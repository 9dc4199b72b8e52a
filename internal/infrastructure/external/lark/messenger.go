package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/garyjia/engagement-tracker/internal/application/port"
	"go.uber.org/zap"
)

// Messenger posts engagement notifications as text messages to one Lark chat
type Messenger struct {
	messageAPI    *MessageAPI
	receiveIDType string
	receiveID     string
	logger        *zap.Logger
}

// NewMessenger creates a notifier bound to the chat configured on the client
func NewMessenger(client *SDKClient, logger *zap.Logger) *Messenger {
	cfg := client.Config()
	return &Messenger{
		messageAPI:    NewMessageAPI(client, logger),
		receiveIDType: cfg.ReceiveIDType,
		receiveID:     cfg.ReceiveID,
		logger:        logger,
	}
}

// Notify implements port.Notifier
func (m *Messenger) Notify(ctx context.Context, message string) error {
	if m.receiveID == "" {
		return fmt.Errorf("lark receive id is not configured")
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("message cannot be empty")
	}

	content, err := textContent(message)
	if err != nil {
		return err
	}

	if _, err := m.messageAPI.SendMessage(ctx, m.receiveIDType, m.receiveID, "text", content); err != nil {
		return fmt.Errorf("failed to notify lark chat: %w", err)
	}
	return nil
}

// textContent builds the JSON content body of a Lark "text" message
func textContent(message string) (string, error) {
	data, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return "", fmt.Errorf("failed to marshal message content: %w", err)
	}
	return string(data), nil
}

var _ port.Notifier = (*Messenger)(nil)
