package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeBackend struct {
	conversations []Conversation
	createErr     error
	sendResult    *ChatResult
	sendErr       error
	listMsgs      []Message
	listMsgsErr   error
	deleted       []string
	sentContent   string
	sentInput     string
	sentConvID    string
	nextConvID    string
}

func (f *fakeBackend) ListConversations(context.Context, int, int) ([]Conversation, error) {
	return f.conversations, nil
}

func (f *fakeBackend) CreateConversation(context.Context, *string) (*Conversation, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	id := f.nextConvID
	if id == "" {
		id = "c1"
	}
	return &Conversation{ID: id, Language: "es", IsActive: true}, nil
}

func (f *fakeBackend) DeleteConversation(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) ListMessages(context.Context, string, int, int) ([]Message, error) {
	return f.listMsgs, f.listMsgsErr
}

func (f *fakeBackend) SendMessage(_ context.Context, conversationID, content, inputType string) (*ChatResult, error) {
	f.sentConvID = conversationID
	f.sentContent = content
	f.sentInput = inputType
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.sendResult, nil
}

type fakeSpeaker struct {
	spoken   []string
	speakErr error
	speaking bool
	stopped  bool
}

func (f *fakeSpeaker) Speak(_ context.Context, text string) error {
	if f.speakErr != nil {
		return f.speakErr
	}
	f.spoken = append(f.spoken, text)
	f.speaking = true
	return nil
}
func (f *fakeSpeaker) Stop()           { f.stopped = true; f.speaking = false }
func (f *fakeSpeaker) Speaking() bool  { return f.speaking }
func (f *fakeSpeaker) Supported() bool { return true }

func helloResult() *ChatResult {
	return &ChatResult{
		UserMessage:      Message{ID: "u1", ConversationID: "c1", Role: RoleUser, Content: "Hola"},
		AssistantMessage: Message{ID: "a1", ConversationID: "c1", Role: RoleAssistant, Content: "Hola, ¿en qué puedo ayudarte?"},
		Sources:          []SourceInfo{},
	}
}

func TestSendCreatesConversationWhenNoneActive(t *testing.T) {
	backend := &fakeBackend{sendResult: helloResult()}
	session := NewSession(backend, nil, 20)

	reply, err := session.Send(context.Background(), "Hola", InputText)
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if reply != "Hola, ¿en qué puedo ayudarte?" {
		t.Errorf("reply = %q", reply)
	}

	state := session.State()
	if state.ActiveConversationID != "c1" {
		t.Errorf("active conversation = %q, want c1", state.ActiveConversationID)
	}
	if backend.sentConvID != "c1" {
		t.Errorf("sent to conversation %q", backend.sentConvID)
	}
	if len(state.Messages) != 2 || state.Messages[0].ID != "u1" || state.Messages[1].ID != "a1" {
		t.Errorf("messages = %+v", state.Messages)
	}
	if len(state.Sources) != 0 {
		t.Errorf("sources = %+v", state.Sources)
	}
	if state.IsLoading {
		t.Error("loading should clear after send")
	}
	if state.Avatar != AvatarSpeaking {
		t.Errorf("avatar = %s, want speaking", state.Avatar)
	}
}

func TestSendFailsWhenConversationCreationFails(t *testing.T) {
	backend := &fakeBackend{createErr: errors.New("Error del servidor")}
	session := NewSession(backend, nil, 20)

	if _, err := session.Send(context.Background(), "Hola", InputText); err == nil {
		t.Fatal("send must fail when conversation creation fails")
	}
	if backend.sentContent != "" {
		t.Error("no message should be sent without a conversation")
	}
	if len(session.State().Messages) != 0 {
		t.Error("no optimistic message should remain")
	}
}

func TestSendSuccessReplacesOptimisticMessage(t *testing.T) {
	backend := &fakeBackend{sendResult: helloResult()}
	session := NewSession(backend, nil, 20)
	session.Dispatch(Action{Type: SetActiveConversation, ID: "c1"})
	prior := []Message{
		{ID: "m1", Role: RoleUser, Content: "anterior"},
		{ID: "m2", Role: RoleAssistant, Content: "respuesta anterior"},
	}
	session.Dispatch(Action{Type: SetMessages, Messages: prior})

	if _, err := session.Send(context.Background(), "Hola", InputText); err != nil {
		t.Fatalf("Send err: %v", err)
	}

	// Prior list minus the optimistic message plus the confirmed pair,
	// in that order
	got := session.State().Messages
	wantIDs := []string{"m1", "m2", "u1", "a1"}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d messages, want %d: %+v", len(got), len(wantIDs), got)
	}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Errorf("messages[%d].ID = %s, want %s", i, got[i].ID, want)
		}
	}
	for _, m := range got {
		if strings.HasPrefix(m.ID, "temp-") {
			t.Error("optimistic message left dangling")
		}
	}
}

func TestSendFailureRemovesExactlyOptimisticMessage(t *testing.T) {
	backend := &fakeBackend{sendErr: errors.New("Error del servidor")}
	session := NewSession(backend, nil, 20)
	session.Dispatch(Action{Type: SetActiveConversation, ID: "c1"})
	prior := []Message{
		{ID: "m1", Role: RoleUser, Content: "anterior"},
		{ID: "m2", Role: RoleAssistant, Content: "respuesta anterior"},
	}
	session.Dispatch(Action{Type: SetMessages, Messages: prior})
	session.Dispatch(Action{Type: SetAvatar, Avatar: AvatarThinking})

	_, err := session.Send(context.Background(), "Hola", InputText)
	if err == nil {
		t.Fatal("expected send failure")
	}

	state := session.State()
	if len(state.Messages) != 2 || state.Messages[0].ID != "m1" || state.Messages[1].ID != "m2" {
		t.Errorf("prior messages disturbed: %+v", state.Messages)
	}
	if state.Error == "" {
		t.Error("error should be surfaced in state")
	}
	if state.IsLoading {
		t.Error("loading should clear after failure")
	}
	// Avatar is left to the caller's recovery policy, not auto-reverted
	if state.Avatar != AvatarThinking {
		t.Errorf("avatar = %s, want thinking (unchanged)", state.Avatar)
	}
}

func TestVoiceSendSpeaksReply(t *testing.T) {
	backend := &fakeBackend{sendResult: helloResult()}
	speaker := &fakeSpeaker{}
	session := NewSession(backend, speaker, 20)
	session.Dispatch(Action{Type: SetActiveConversation, ID: "c1"})

	if _, err := session.Send(context.Background(), "Hola", InputVoice); err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if backend.sentInput != InputVoice {
		t.Errorf("input type = %q", backend.sentInput)
	}
	if len(speaker.spoken) != 1 || speaker.spoken[0] != "Hola, ¿en qué puedo ayudarte?" {
		t.Errorf("spoken = %v", speaker.spoken)
	}
}

func TestTextSendDoesNotSpeak(t *testing.T) {
	backend := &fakeBackend{sendResult: helloResult()}
	speaker := &fakeSpeaker{}
	session := NewSession(backend, speaker, 20)
	session.Dispatch(Action{Type: SetActiveConversation, ID: "c1"})

	session.Send(context.Background(), "Hola", InputText)
	if len(speaker.spoken) != 0 {
		t.Errorf("text send should not trigger playback: %v", speaker.spoken)
	}
}

func TestOnPlaybackStopped(t *testing.T) {
	session := NewSession(&fakeBackend{}, nil, 20)

	session.Dispatch(Action{Type: SetAvatar, Avatar: AvatarSpeaking})
	session.OnPlaybackStopped()
	if session.State().Avatar != AvatarIdle {
		t.Error("speaking avatar should return to idle when playback stops")
	}

	session.Dispatch(Action{Type: SetAvatar, Avatar: AvatarListening})
	session.OnPlaybackStopped()
	if session.State().Avatar != AvatarListening {
		t.Error("non-speaking avatar must be left alone")
	}
}

func TestSelectConversationLoadsMessages(t *testing.T) {
	backend := &fakeBackend{listMsgs: []Message{{ID: "m1", Role: RoleUser, Content: "hola"}}}
	session := NewSession(backend, nil, 20)
	session.Dispatch(Action{Type: SetSources, Sources: []SourceInfo{{ChunkID: "stale"}}})

	if err := session.SelectConversation(context.Background(), "c2"); err != nil {
		t.Fatalf("SelectConversation err: %v", err)
	}

	state := session.State()
	if state.ActiveConversationID != "c2" {
		t.Errorf("active = %q", state.ActiveConversationID)
	}
	if len(state.Messages) != 1 || state.Messages[0].ID != "m1" {
		t.Errorf("messages = %+v", state.Messages)
	}
	if len(state.Sources) != 0 {
		t.Error("stale sources must be cleared on switch")
	}
}

func TestDeleteConversation(t *testing.T) {
	backend := &fakeBackend{}
	session := NewSession(backend, nil, 20)
	session.Dispatch(Action{Type: AddConversation, Conversation: Conversation{ID: "c1"}})
	session.Dispatch(Action{Type: SetActiveConversation, ID: "c1"})

	if err := session.DeleteConversation(context.Background(), "c1"); err != nil {
		t.Fatalf("DeleteConversation err: %v", err)
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != "c1" {
		t.Errorf("backend deletions = %v", backend.deleted)
	}
	state := session.State()
	if len(state.Conversations) != 0 || state.ActiveConversationID != "" {
		t.Errorf("state after delete: %+v", state)
	}
}
