package chat

// State is the single source of truth for the chat view
type State struct {
	Conversations        []Conversation
	ActiveConversationID string
	Messages             []Message
	Sources              []SourceInfo
	IsLoading            bool
	Avatar               AvatarState
	InputMode            string
	Error                string
}

// NewState returns the initial chat state: no active conversation,
// avatar idle, text input mode.
func NewState() State {
	return State{
		Avatar:    AvatarIdle,
		InputMode: InputText,
	}
}

// ActionType discriminates reducer actions
type ActionType int

const (
	SetConversations ActionType = iota
	AddConversation
	RemoveConversation
	SetActiveConversation
	SetMessages
	AddMessage
	SetSources
	SetLoading
	SetAvatar
	SetInputMode
	SetError
)

// Action is a tagged state transition. Only the payload field matching the
// type is read; the rest are ignored.
type Action struct {
	Type          ActionType
	Conversations []Conversation
	Conversation  Conversation
	Messages      []Message
	Message       Message
	Sources       []SourceInfo
	Avatar        AvatarState
	ID            string
	Mode          string
	Bool          bool
	Text          string
}

// Reduce applies an action to a state snapshot and returns the next
// snapshot. It is pure: the input state is never mutated and slices held by
// the result never alias slices reachable from the input.
func Reduce(state State, action Action) State {
	next := state

	switch action.Type {
	case SetConversations:
		next.Conversations = cloneSlice(action.Conversations)
	case AddConversation:
		// New conversations go first, matching the sidebar ordering
		next.Conversations = append([]Conversation{action.Conversation}, state.Conversations...)
	case RemoveConversation:
		kept := make([]Conversation, 0, len(state.Conversations))
		for _, c := range state.Conversations {
			if c.ID != action.ID {
				kept = append(kept, c)
			}
		}
		next.Conversations = kept
		if state.ActiveConversationID == action.ID {
			next.ActiveConversationID = ""
		}
	case SetActiveConversation:
		// Switching conversations must never show stale content
		next.ActiveConversationID = action.ID
		next.Messages = nil
		next.Sources = nil
	case SetMessages:
		next.Messages = cloneSlice(action.Messages)
	case AddMessage:
		next.Messages = append(cloneSlice(state.Messages), action.Message)
	case SetSources:
		next.Sources = cloneSlice(action.Sources)
	case SetLoading:
		next.IsLoading = action.Bool
	case SetAvatar:
		next.Avatar = action.Avatar
	case SetInputMode:
		next.InputMode = action.Mode
	case SetError:
		next.Error = action.Text
	}

	return next
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
