package api

import (
	"context"
	"fmt"
	"net/http"

	"iupchat/internal/chat"
)

type createConversationRequest struct {
	Title *string `json:"title"`
}

type sendMessageRequest struct {
	Content     string  `json:"content"`
	InputType   string  `json:"input_type"`
	LLMProvider *string `json:"llm_provider,omitempty"`
}

// ListConversations returns the caller's conversations, newest first
func (c *Client) ListConversations(ctx context.Context, limit, offset int) ([]chat.Conversation, error) {
	path := fmt.Sprintf("/api/v1/chat/conversations?limit=%d&offset=%d", limit, offset)
	var conversations []chat.Conversation
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// CreateConversation starts a new conversation; title may be nil
func (c *Client) CreateConversation(ctx context.Context, title *string) (*chat.Conversation, error) {
	var conversation chat.Conversation
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/chat/conversations", createConversationRequest{Title: title}, &conversation)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// GetConversation fetches a single conversation by id
func (c *Client) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	var conversation chat.Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/chat/conversations/"+id, nil, &conversation); err != nil {
		return nil, err
	}
	return &conversation, nil
}

// DeleteConversation removes a conversation by id
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/chat/conversations/"+id, nil, nil)
}

// ListMessages returns a conversation's messages in chronological order
func (c *Client) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error) {
	path := fmt.Sprintf("/api/v1/chat/conversations/%s/messages?limit=%d&offset=%d", conversationID, limit, offset)
	var messages []chat.Message
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage submits a user message and returns the server-confirmed
// user/assistant pair plus retrieval sources
func (c *Client) SendMessage(ctx context.Context, conversationID, content, inputType string) (*chat.ChatResult, error) {
	path := fmt.Sprintf("/api/v1/chat/conversations/%s/messages", conversationID)
	var result chat.ChatResult
	req := sendMessageRequest{Content: content, InputType: inputType}
	if err := c.doJSON(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
