package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Backend is the remote conversation service behind the session
type Backend interface {
	ListConversations(ctx context.Context, limit, offset int) ([]Conversation, error)
	CreateConversation(ctx context.Context, title *string) (*Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]Message, error)
	SendMessage(ctx context.Context, conversationID, content, inputType string) (*ChatResult, error)
}

// Speaker plays assistant replies aloud; see internal/voice
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop()
	Speaking() bool
	Supported() bool
}

// Session composes the reducer, the backend, and voice playback into the
// send/receive flow. All state mutation goes through dispatched actions;
// reads take consistent snapshots.
type Session struct {
	backend   Backend
	speaker   Speaker
	pageLimit int

	mu    sync.Mutex
	state State
}

// NewSession creates a chat session in the initial state. speaker may be
// nil when voice output is disabled.
func NewSession(backend Backend, speaker Speaker, pageLimit int) *Session {
	return &Session{
		backend:   backend,
		speaker:   speaker,
		pageLimit: pageLimit,
		state:     NewState(),
	}
}

// State returns a snapshot of the current chat state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies an action to the session state
func (s *Session) Dispatch(action Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, action)
	s.mu.Unlock()
}

// LoadConversations refreshes the conversation list. Failures land in the
// state error and are also returned.
func (s *Session) LoadConversations(ctx context.Context) error {
	conversations, err := s.backend.ListConversations(ctx, s.pageLimit, 0)
	if err != nil {
		s.Dispatch(Action{Type: SetError, Text: err.Error()})
		return err
	}
	s.Dispatch(Action{Type: SetConversations, Conversations: conversations})
	return nil
}

// CreateConversation starts a new conversation and makes it active
func (s *Session) CreateConversation(ctx context.Context) (string, error) {
	conversation, err := s.backend.CreateConversation(ctx, nil)
	if err != nil {
		s.Dispatch(Action{Type: SetError, Text: err.Error()})
		return "", err
	}
	s.Dispatch(Action{Type: AddConversation, Conversation: *conversation})
	s.Dispatch(Action{Type: SetActiveConversation, ID: conversation.ID})
	return conversation.ID, nil
}

// SelectConversation switches the active conversation and loads its
// messages. The switch itself always clears prior content.
func (s *Session) SelectConversation(ctx context.Context, id string) error {
	s.Dispatch(Action{Type: SetActiveConversation, ID: id})
	s.Dispatch(Action{Type: SetError})

	messages, err := s.backend.ListMessages(ctx, id, s.pageLimit, 0)
	if err != nil {
		s.Dispatch(Action{Type: SetError, Text: err.Error()})
		return err
	}
	s.Dispatch(Action{Type: SetMessages, Messages: messages})
	return nil
}

// DeleteConversation removes a conversation remotely and from state
func (s *Session) DeleteConversation(ctx context.Context, id string) error {
	if err := s.backend.DeleteConversation(ctx, id); err != nil {
		s.Dispatch(Action{Type: SetError, Text: err.Error()})
		return err
	}
	s.Dispatch(Action{Type: RemoveConversation, ID: id})
	return nil
}

// Send submits a user message through the optimistic flow: the message
// appears immediately with a temporary id and is replaced by the
// server-confirmed pair on success or removed on failure. Voice-originated
// sends speak the assistant's reply. Returns the assistant's text.
func (s *Session) Send(ctx context.Context, content, inputType string) (string, error) {
	conversationID := s.State().ActiveConversationID
	if conversationID == "" {
		// No active conversation: create one, failing the whole send if
		// creation fails
		id, err := s.CreateConversation(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to create conversation: %w", err)
		}
		conversationID = id
	}

	s.Dispatch(Action{Type: SetLoading, Bool: true})
	s.Dispatch(Action{Type: SetAvatar, Avatar: AvatarThinking})
	s.Dispatch(Action{Type: SetError})

	temp := Message{
		ID:             "temp-" + uuid.New().String(),
		ConversationID: conversationID,
		Role:           RoleUser,
		Content:        content,
		InputType:      inputType,
	}
	s.Dispatch(Action{Type: AddMessage, Message: temp})

	result, err := s.backend.SendMessage(ctx, conversationID, content, inputType)

	s.mu.Lock()
	kept := make([]Message, 0, len(s.state.Messages))
	for _, m := range s.state.Messages {
		if m.ID != temp.ID {
			kept = append(kept, m)
		}
	}
	if err == nil {
		kept = append(kept, result.UserMessage, result.AssistantMessage)
	}
	s.state = Reduce(s.state, Action{Type: SetMessages, Messages: kept})
	s.mu.Unlock()

	if err != nil {
		// Avatar is left for the caller's error-recovery policy
		s.Dispatch(Action{Type: SetError, Text: err.Error()})
		s.Dispatch(Action{Type: SetLoading, Bool: false})
		return "", err
	}

	s.Dispatch(Action{Type: SetSources, Sources: result.Sources})
	s.Dispatch(Action{Type: SetAvatar, Avatar: AvatarSpeaking})
	s.Dispatch(Action{Type: SetLoading, Bool: false})

	reply := result.AssistantMessage.Content
	if inputType == InputVoice && s.speaker != nil && s.speaker.Supported() {
		if err := s.speaker.Speak(ctx, reply); err != nil {
			// Playback failure is not a send failure; surface and move on
			s.Dispatch(Action{Type: SetError, Text: err.Error()})
			s.Dispatch(Action{Type: SetAvatar, Avatar: AvatarIdle})
		}
	}
	return reply, nil
}

// OnPlaybackStopped transitions the avatar back to idle once speech
// playback ends. Wire it as the speaker's done callback.
func (s *Session) OnPlaybackStopped() {
	s.mu.Lock()
	if s.state.Avatar == AvatarSpeaking {
		s.state = Reduce(s.state, Action{Type: SetAvatar, Avatar: AvatarIdle})
	}
	s.mu.Unlock()
}

// StopSpeaking forcibly ends any in-flight playback
func (s *Session) StopSpeaking() {
	if s.speaker != nil {
		s.speaker.Stop()
	}
}
