package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vita/internal/llm"
	"vita/internal/orchestrator"
	"vita/internal/router"
	"vita/internal/security"
	"vita/internal/specialist"
	"vita/internal/store"
	"vita/internal/telemetry"
	"vita/internal/toolregistry"
	"vita/internal/tools"
)

func newTestServer(t *testing.T, mock *llm.Mock) *Server {
	t.Helper()
	st, err := store.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	registry := toolregistry.NewRegistry()
	require.NoError(t, tools.RegisterBuiltins(registry))

	specialists, err := specialist.Load()
	require.NoError(t, err)

	classifier := router.NewClassifier(mock, telemetry.NopSink(), nil)
	o := orchestrator.New(mock, registry, specialists, classifier, st, telemetry.NopSink(), nil, nil)

	cipher, err := security.NewKeyCipher("test-passphrase")
	require.NoError(t, err)
	return New(o, st, cipher, nil)
}

func doJSON(s *Server, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, llm.NewMock())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, llm.NewMock())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChatStreamsEvents(t *testing.T) {
	mock := &llm.Mock{Replies: []string{"Logged your meal, enjoy."}}
	s := newTestServer(t, mock)

	rec := doJSON(s, http.MethodPost, "/api/chat",
		`{"user_id": "u1", "message": "I had a banana and whole wheat bagel for lunch"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/event-stream"))

	payload := rec.Body.String()
	assert.Contains(t, payload, "content")
	assert.Contains(t, payload, "done")
	// Content arrives word by word; the first token is enough to prove the
	// reply streamed through.
	assert.Contains(t, payload, "Logged")
}

func TestChatRejectsMissingUser(t *testing.T) {
	s := newTestServer(t, llm.NewMock())
	rec := doJSON(s, http.MethodPost, "/api/chat", `{"message": "hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatRejectsEmptyTurn(t *testing.T) {
	s := newTestServer(t, llm.NewMock())
	rec := doJSON(s, http.MethodPost, "/api/chat", `{"user_id": "u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatRejectsBadImageEncoding(t *testing.T) {
	s := newTestServer(t, llm.NewMock())
	rec := doJSON(s, http.MethodPost, "/api/chat", `{"user_id": "u1", "image": "not base64!!!"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKeyLifecycle(t *testing.T) {
	s := newTestServer(t, llm.NewMock())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/keys/u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"configured":false`)

	rec = doJSON(s, http.MethodPut, "/api/keys", `{"user_id": "u1", "api_key": "sk-test-123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/keys/u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"configured":true`)
	// The plaintext key never appears in a response.
	assert.NotContains(t, rec.Body.String(), "sk-test-123")
}

func TestSaveKeyRejectsIncomplete(t *testing.T) {
	s := newTestServer(t, llm.NewMock())
	rec := doJSON(s, http.MethodPut, "/api/keys", `{"user_id": "u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHistoryForwarded(t *testing.T) {
	mock := &llm.Mock{Replies: []string{`{"category": "general_chat"}`, "Of course."}}
	s := newTestServer(t, mock)

	rec := doJSON(s, http.MethodPost, "/api/chat",
		`{"user_id": "u1", "message": "and what about tomorrow morning exactly",
		  "history": [{"role": "user", "content": "plan context"}, {"role": "assistant", "content": "earlier reply"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// The generation call carries the history plus the new message.
	last := mock.Requests[len(mock.Requests)-1]
	require.Len(t, last.Messages, 3)
	assert.Equal(t, "plan context", last.Messages[0].Content)
	assert.Equal(t, "and what about tomorrow morning exactly", last.Messages[2].Content)
}
