package lark

import (
	"context"
	"encoding/json"
	"fmt"

	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/caf-approval/internal/application/port"
)

const (
	// receive_id_type for addressing users by email
	receiveIDTypeEmail = "email"
	msgTypePost        = "post"
)

// Messenger implements port.MessageSender over Lark rich-text messages
type Messenger struct {
	messages messageCreator
	logger   *zap.Logger
}

// NewMessenger creates a new Lark message sender adapter
func NewMessenger(client *Client, logger *zap.Logger) *Messenger {
	return newMessenger(client.messages, logger)
}

func newMessenger(messages messageCreator, logger *zap.Logger) *Messenger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Messenger{messages: messages, logger: logger}
}

// postElement is one inline element of a Lark post message
type postElement struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
	Href string `json:"href,omitempty"`
}

type postBody struct {
	Title   string          `json:"title"`
	Content [][]postElement `json:"content"`
}

// BuildPostContent renders a message as Lark "post" content
func BuildPostContent(msg port.Message) (string, error) {
	text := msg.Text
	if text == "" {
		text = msg.Subject
	}

	lines := [][]postElement{{{Tag: "text", Text: text}}}
	if msg.Link != "" {
		lines = append(lines, []postElement{{Tag: "a", Text: msg.Link, Href: msg.Link}})
	}

	content, err := json.Marshal(map[string]postBody{
		"en_us": {Title: msg.Subject, Content: lines},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal post content: %w", err)
	}
	return string(content), nil
}

// SendMessage delivers msg to the Lark user registered with msg.To
func (m *Messenger) SendMessage(ctx context.Context, msg port.Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient cannot be empty")
	}

	content, err := BuildPostContent(msg)
	if err != nil {
		return err
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDTypeEmail).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(msg.To).
			MsgType(msgTypePost).
			Content(content).
			Build()).
		Build()

	resp, err := m.messages.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("receive_id", msg.To),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("receive_id", msg.To),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}

	m.logger.Info("Message sent successfully",
		zap.String("message_id", messageID),
		zap.String("receive_id", msg.To),
		zap.String("subject", msg.Subject))

	return nil
}

var _ port.MessageSender = (*Messenger)(nil)
