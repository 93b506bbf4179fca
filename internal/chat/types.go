package chat

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message input types
const (
	InputText  = "text"
	InputVoice = "voice"
)

// AvatarState is the assistant's animated mood
type AvatarState string

const (
	AvatarIdle      AvatarState = "idle"
	AvatarListening AvatarState = "listening"
	AvatarThinking  AvatarState = "thinking"
	AvatarSpeaking  AvatarState = "speaking"
)

// Conversation is a named thread of messages between a user and the
// assistant. The client treats it as a read-mostly record.
type Conversation struct {
	ID        string  `json:"id"`
	UserID    *string `json:"user_id"`
	Title     *string `json:"title"`
	Language  string  `json:"language"`
	IsActive  bool    `json:"is_active"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// Message is a single turn within a conversation
type Message struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversation_id"`
	Role           string  `json:"role"`
	Content        string  `json:"content"`
	InputType      string  `json:"input_type"`
	TokensUsed     *int    `json:"tokens_used"`
	LLMProvider    *string `json:"llm_provider"`
	LLMModel       *string `json:"llm_model"`
	ResponseTimeMs *int    `json:"response_time_ms"`
	CreatedAt      string  `json:"created_at"`
}

// SourceInfo is a retrieved document chunk cited as supporting evidence
// for an assistant reply. Ephemeral: replaced wholesale on each response.
type SourceInfo struct {
	ChunkID        string  `json:"chunk_id"`
	DocumentTitle  string  `json:"document_title"`
	ContentPreview string  `json:"content_preview"`
	Score          float64 `json:"score"`
	Program        *string `json:"program"`
	Faculty        *string `json:"faculty"`
}

// ChatResult is the server's answer to a send-message call: the confirmed
// user/assistant message pair plus the sources backing the reply.
type ChatResult struct {
	UserMessage      Message      `json:"user_message"`
	AssistantMessage Message      `json:"assistant_message"`
	Sources          []SourceInfo `json:"sources"`
}
