package llm

import (
	"context"
	"strings"
	"sync"
)

// Mock is a scripted Provider for tests. Replies are consumed in order by
// Chat and ChatStream; ChatStream emits the reply word by word.
type Mock struct {
	mu          sync.Mutex
	Replies     []string
	VisionReply string
	ChatErr     error
	VisionErr   error
	KeyErr      error

	// Requests records every chat request for assertions.
	Requests       []ChatRequest
	VisionRequests []VisionRequest
}

// NewMock builds a Mock with a single generic reply.
func NewMock() *Mock {
	return &Mock{Replies: []string{"This is a scripted reply."}}
}

func (m *Mock) ReasoningModel() string { return "mock-reasoning" }
func (m *Mock) UtilityModel() string   { return "mock-utility" }
func (m *Mock) VisionModel() string    { return "mock-vision" }

func (m *Mock) nextReply() string {
	if len(m.Replies) == 0 {
		return "ok"
	}
	reply := m.Replies[0]
	if len(m.Replies) > 1 {
		m.Replies = m.Replies[1:]
	}
	return reply
}

func (m *Mock) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.ChatErr != nil {
		return nil, m.ChatErr
	}
	reply := m.nextReply()
	return &ChatResult{
		Content:      reply,
		TokensIn:     promptTokens(req),
		TokensOut:    len(strings.Fields(reply)),
		Model:        req.Model,
		FinishReason: "stop",
	}, nil
}

func (m *Mock) ChatStream(ctx context.Context, req ChatRequest, onChunk func(StreamChunk)) (*ChatResult, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	err := m.ChatErr
	reply := ""
	if err == nil {
		reply = m.nextReply()
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	words := strings.Fields(reply)
	for i, word := range words {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		delta := word
		if i < len(words)-1 {
			delta += " "
		}
		if onChunk != nil {
			onChunk(StreamChunk{Delta: delta})
		}
	}
	if onChunk != nil {
		onChunk(StreamChunk{Done: true})
	}
	return &ChatResult{
		Content:      reply,
		TokensIn:     promptTokens(req),
		TokensOut:    len(words),
		Model:        req.Model,
		FinishReason: "stop",
	}, nil
}

func (m *Mock) ChatWithVision(ctx context.Context, req VisionRequest) (*ChatResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VisionRequests = append(m.VisionRequests, req)
	if m.VisionErr != nil {
		return nil, m.VisionErr
	}
	reply := m.VisionReply
	if reply == "" {
		reply = "The image shows a balanced meal."
	}
	return &ChatResult{
		Content:   reply,
		TokensIn:  42,
		TokensOut: len(strings.Fields(reply)),
		Model:     req.Model,
	}, nil
}

func (m *Mock) ValidateKey(ctx context.Context) error {
	return m.KeyErr
}

func promptTokens(req ChatRequest) int {
	n := len(strings.Fields(req.System))
	for _, msg := range req.Messages {
		n += len(strings.Fields(msg.Content))
	}
	if n == 0 {
		n = 1
	}
	return n
}
