package llm

// Message roles follow the chat-completions convention.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of conversation context.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolDescriptor describes a callable operation to the model.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ChatRequest carries everything needed for one completion call.
type ChatRequest struct {
	Messages    []Message
	Model       string
	System      string
	Temperature float64
	MaxTokens   int
	Tools       []ToolDescriptor
}

// ChatResult is the provider's complete answer plus token accounting.
type ChatResult struct {
	Content      string
	TokensIn     int
	TokensOut    int
	Model        string
	FinishReason string
}

// StreamChunk is one partial-output delta from a streaming completion.
type StreamChunk struct {
	Delta string
	Done  bool
}

// VisionRequest sends image bytes plus a context hint to a vision-capable model.
type VisionRequest struct {
	Prompt    string
	System    string
	ImageData []byte
	ImageMime string
	Model     string
}
