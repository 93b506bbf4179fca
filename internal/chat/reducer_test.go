package chat

import "testing"

func conv(id string) Conversation {
	return Conversation{ID: id, Language: "es", IsActive: true}
}

func msg(id, role, content string) Message {
	return Message{ID: id, Role: role, Content: content, InputType: InputText}
}

func TestNewState(t *testing.T) {
	state := NewState()
	if state.ActiveConversationID != "" {
		t.Error("initial state should have no active conversation")
	}
	if state.Avatar != AvatarIdle {
		t.Errorf("initial avatar should be idle, got %s", state.Avatar)
	}
	if state.InputMode != InputText {
		t.Errorf("initial input mode should be text, got %s", state.InputMode)
	}
}

func TestSetActiveConversationClearsContent(t *testing.T) {
	state := NewState()
	state = Reduce(state, Action{Type: SetMessages, Messages: []Message{msg("m1", RoleUser, "hola")}})
	state = Reduce(state, Action{Type: SetSources, Sources: []SourceInfo{{ChunkID: "ch1"}}})

	state = Reduce(state, Action{Type: SetActiveConversation, ID: "c2"})

	if state.ActiveConversationID != "c2" {
		t.Errorf("active id = %s, want c2", state.ActiveConversationID)
	}
	if len(state.Messages) != 0 {
		t.Error("switching conversations must clear messages")
	}
	if len(state.Sources) != 0 {
		t.Error("switching conversations must clear sources")
	}
}

func TestSetActiveConversationAlwaysClears(t *testing.T) {
	// Property: regardless of prior actions, the transition yields empty
	// messages and sources.
	sequences := [][]Action{
		{},
		{{Type: AddMessage, Message: msg("m1", RoleUser, "a")}},
		{
			{Type: SetMessages, Messages: []Message{msg("m1", RoleUser, "a"), msg("m2", RoleAssistant, "b")}},
			{Type: SetSources, Sources: []SourceInfo{{ChunkID: "x"}, {ChunkID: "y"}}},
			{Type: SetLoading, Bool: true},
		},
		{
			{Type: SetActiveConversation, ID: "c9"},
			{Type: AddMessage, Message: msg("m3", RoleSystem, "s")},
		},
	}

	for i, seq := range sequences {
		state := NewState()
		for _, a := range seq {
			state = Reduce(state, a)
		}
		state = Reduce(state, Action{Type: SetActiveConversation, ID: "c1"})
		if len(state.Messages) != 0 || len(state.Sources) != 0 {
			t.Errorf("sequence %d: messages/sources not cleared: %d/%d",
				i, len(state.Messages), len(state.Sources))
		}
	}
}

func TestAddAndRemoveConversation(t *testing.T) {
	state := NewState()
	state = Reduce(state, Action{Type: SetConversations, Conversations: []Conversation{conv("c1")}})
	state = Reduce(state, Action{Type: AddConversation, Conversation: conv("c2")})

	if len(state.Conversations) != 2 || state.Conversations[0].ID != "c2" {
		t.Fatalf("new conversation should be first: %+v", state.Conversations)
	}

	state = Reduce(state, Action{Type: SetActiveConversation, ID: "c2"})
	state = Reduce(state, Action{Type: RemoveConversation, ID: "c2"})

	if len(state.Conversations) != 1 || state.Conversations[0].ID != "c1" {
		t.Errorf("remove left wrong conversations: %+v", state.Conversations)
	}
	if state.ActiveConversationID != "" {
		t.Error("removing the active conversation must clear the active id")
	}

	// Removing a non-active conversation keeps the active id
	state = Reduce(state, Action{Type: SetActiveConversation, ID: "c1"})
	state = Reduce(state, Action{Type: AddConversation, Conversation: conv("c3")})
	state = Reduce(state, Action{Type: RemoveConversation, ID: "c3"})
	if state.ActiveConversationID != "c1" {
		t.Error("removing another conversation must not clear the active id")
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	original := NewState()
	original = Reduce(original, Action{Type: SetMessages, Messages: []Message{msg("m1", RoleUser, "a")}})

	next := Reduce(original, Action{Type: AddMessage, Message: msg("m2", RoleAssistant, "b")})
	next.Messages[0].Content = "changed"

	if original.Messages[0].Content != "a" {
		t.Error("Reduce must not alias the input state's message slice")
	}
	if len(original.Messages) != 1 {
		t.Error("input state grew after AddMessage")
	}
}

func TestScalarTransitions(t *testing.T) {
	state := NewState()

	state = Reduce(state, Action{Type: SetLoading, Bool: true})
	if !state.IsLoading {
		t.Error("SetLoading true not applied")
	}

	state = Reduce(state, Action{Type: SetAvatar, Avatar: AvatarThinking})
	if state.Avatar != AvatarThinking {
		t.Error("SetAvatar not applied")
	}

	state = Reduce(state, Action{Type: SetInputMode, Mode: InputVoice})
	if state.InputMode != InputVoice {
		t.Error("SetInputMode not applied")
	}

	state = Reduce(state, Action{Type: SetError, Text: "Error del servidor"})
	if state.Error != "Error del servidor" {
		t.Error("SetError not applied")
	}
	state = Reduce(state, Action{Type: SetError, Text: ""})
	if state.Error != "" {
		t.Error("SetError should clear with empty text")
	}
}
