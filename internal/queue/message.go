package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageVersion is the current job payload version.
const MessageVersion = 1

// Message is one Slack message waiting to be analyzed.
type Message struct {
	TeamID       string `json:"teamId"`
	EnterpriseID string `json:"enterpriseId,omitempty"`
	Channel      string `json:"channel"`
	TS           string `json:"ts"`
	ThreadTS     string `json:"threadTs,omitempty"`
	UserID       string `json:"userId,omitempty"`
	Text         string `json:"text"`
	RequestID    string `json:"requestId,omitempty"`
	EnqueuedAt   string `json:"enqueuedAt"`
	Version      int    `json:"version"`
}

// Validate reports whether the message carries enough to post feedback.
// Version 0 is accepted as the first payload version.
func (m Message) Validate() error {
	switch {
	case m.Version > MessageVersion:
		return fmt.Errorf("unsupported message version %d", m.Version)
	case strings.TrimSpace(m.Channel) == "":
		return errors.New("channel is required")
	case strings.TrimSpace(m.TS) == "":
		return errors.New("ts is required")
	case strings.TrimSpace(m.Text) == "":
		return errors.New("text is required")
	}
	return nil
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
