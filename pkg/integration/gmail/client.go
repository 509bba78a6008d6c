package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Service wraps the Gmail API service
type Service struct {
	srv *gmail.Service
}

// NewService creates a new Gmail service using an authenticated HTTP client
func NewService(ctx context.Context, client *http.Client) (*Service, error) {
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Gmail client: %w", err)
	}

	return &Service{srv: srv}, nil
}

// FetchUnreadEmails returns a list of unread emails
func (s *Service) FetchUnreadEmails(ctx context.Context) ([]*gmail.Message, error) {
	user := "me"
	r, err := s.srv.Users.Messages.List(user).Q("is:unread").Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %w", err)
	}

	var messages []*gmail.Message
	for _, m := range r.Messages {
		msg, err := s.srv.Users.Messages.Get(user, m.Id).Do()
		if err != nil {
			continue // Skip if fail to get details
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// MarkAsRead removes the UNREAD label so a message is not captured twice
func (s *Service) MarkAsRead(id string) error {
	_, err := s.srv.Users.Messages.Modify("me", id, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Do()
	if err != nil {
		return fmt.Errorf("unable to mark message as read: %w", err)
	}
	return nil
}

// GetBody extracts the plain text body from a message
func GetBody(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	if msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		data, _ := base64.URLEncoding.DecodeString(msg.Payload.Body.Data)
		return string(data)
	}
	// Multipart message: take the first text/plain part
	for _, part := range msg.Payload.Parts {
		if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
			data, _ := base64.URLEncoding.DecodeString(part.Body.Data)
			return string(data)
		}
	}
	return ""
}
