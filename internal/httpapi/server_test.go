package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formpilotai/formpilot/internal/llm"
	"github.com/formpilotai/formpilot/internal/schemas"
	"github.com/formpilotai/formpilot/internal/sessionstore"
)

type stubClient struct{ response string }

func (s *stubClient) Name() string { return "stub" }
func (s *stubClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return &llm.Response{Content: s.response}, nil
}

const leaveRequestMD = `---
form_id: leave_request
fields:
  - id: leave_type
    type: dropdown
    required: true
    options: ["Annual", "Sick"]
    prompt: "What type of leave?"
  - id: start_date
    type: date
    required: true
    prompt: "When does it start?"
---
# Leave Request Form
`

func newTestServer(t *testing.T, response string) *Server {
	t.Helper()
	store := sessionstore.New(0)
	return New(Config{
		Store:  store,
		Client: &stubClient{response: response},
		Model:  "default",
		Schemas: schemas.New(t.TempDir()),
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleChat_CreatesSessionAndRunsGreeting(t *testing.T) {
	s := newTestServer(t, "")

	rec := doJSON(t, s, http.MethodPost, "/api/chat", chatRequest{
		FormContextMD: leaveRequestMD,
		UserMessage:   "",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ConversationID)
	assert.Equal(t, "MESSAGE", string(resp.Action.Kind))
}

func TestHandleChat_RejectsEmptyFormContext(t *testing.T) {
	s := newTestServer(t, "")

	rec := doJSON(t, s, http.MethodPost, "/api/chat", chatRequest{FormContextMD: "   "})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_RejectsSchemalessFormContext(t *testing.T) {
	s := newTestServer(t, "")

	rec := doJSON(t, s, http.MethodPost, "/api/chat", chatRequest{FormContextMD: "# Just a heading, no frontmatter\n"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_ResumesExistingSession(t *testing.T) {
	s := newTestServer(t, `{"action":"ASK_DROPDOWN","field_id":"leave_type","label":"Leave type","options":["Annual","Sick"],"message":"Pick one"}`)

	first := doJSON(t, s, http.MethodPost, "/api/chat", chatRequest{FormContextMD: leaveRequestMD})
	var firstResp chatResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))

	second := doJSON(t, s, http.MethodPost, "/api/chat", chatRequest{
		ConversationID: firstResp.ConversationID,
		UserMessage:    "I need sick leave",
	})

	require.Equal(t, http.StatusOK, second.Code)
	var secondResp chatResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))
	assert.Equal(t, firstResp.ConversationID, secondResp.ConversationID)
	assert.Equal(t, "ASK_DROPDOWN", string(secondResp.Action.Kind))
}

func TestHandleResetSession_ReportsWhetherItExisted(t *testing.T) {
	s := newTestServer(t, "")

	created := doJSON(t, s, http.MethodPost, "/api/chat", chatRequest{FormContextMD: leaveRequestMD})
	var createdResp chatResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &createdResp))

	rec := doJSON(t, s, http.MethodPost, "/api/sessions/reset", resetRequest{ConversationID: createdResp.ConversationID})
	require.Equal(t, http.StatusOK, rec.Code)

	var resetResp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resetResp))
	assert.Equal(t, true, resetResp["success"])

	again := doJSON(t, s, http.MethodPost, "/api/sessions/reset", resetRequest{ConversationID: createdResp.ConversationID})
	var againResp map[string]any
	require.NoError(t, json.Unmarshal(again.Body.Bytes(), &againResp))
	assert.Equal(t, false, againResp["success"])
}

func TestHandleHealth_ReportsActiveSessionCount(t *testing.T) {
	s := newTestServer(t, "")
	doJSON(t, s, http.MethodPost, "/api/chat", chatRequest{FormContextMD: leaveRequestMD})

	rec := doJSON(t, s, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.EqualValues(t, 1, resp["active_sessions"])
}

func TestHandleSchemas_ListAndGet(t *testing.T) {
	dir := t.TempDir()
	s := New(Config{
		Store:   sessionstore.New(0),
		Client:  &stubClient{},
		Schemas: schemas.New(dir),
	})

	writeSchemaFile(t, dir, "leave.md", "# Leave Request Form\n")

	listRec := doJSON(t, s, http.MethodGet, "/api/schemas", nil)
	require.Equal(t, http.StatusOK, listRec.Code)
	var listResp map[string][]schemas.Entry
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &listResp))
	require.Len(t, listResp["schemas"], 1)
	assert.Equal(t, "leave.md", listResp["schemas"][0].Filename)

	getRec := doJSON(t, s, http.MethodGet, "/api/schemas/leave.md", nil)
	require.Equal(t, http.StatusOK, getRec.Code)
	var getResp map[string]string
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &getResp))
	assert.Equal(t, "# Leave Request Form\n", getResp["content"])
}

func TestRunTurn_CanceledContextDiscardsPartialState(t *testing.T) {
	s := newTestServer(t, `{"action":"ASK_DROPDOWN","field_id":"leave_type","label":"Leave type","options":["Annual","Sick"],"message":"Pick one"}`)

	rec := doJSON(t, s, http.MethodPost, "/api/chat", chatRequest{FormContextMD: leaveRequestMD})
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	sess, ok := s.store.Get(resp.ConversationID)
	require.True(t, ok)

	formBefore := sess.Form
	stateBefore := sess.State
	historyLenBefore := len(stateBefore.ConversationHistory)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.runTurn(ctx, sess, "I need sick leave", nil)

	assert.Same(t, formBefore, sess.Form, "a canceled turn must not commit its working copy")
	assert.Same(t, stateBefore, sess.State, "a canceled turn must not commit its working copy")
	assert.Len(t, stateBefore.ConversationHistory, historyLenBefore, "the original session state must be untouched")
}

func TestHandleSchemas_UnknownFileReturns404(t *testing.T) {
	s := New(Config{Store: sessionstore.New(0), Client: &stubClient{}, Schemas: schemas.New(t.TempDir())})

	rec := doJSON(t, s, http.MethodGet, "/api/schemas/missing.md", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func writeSchemaFile(t *testing.T, dir, filename, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644))
}
