package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/doclens/doclens/internal/core/domain"
)

func newTestServer(t *testing.T, search *fakeSearchService) *Server {
	t.Helper()
	srv, err := NewServer(&Ports{Search: search}, zap.NewNop())
	require.NoError(t, err)
	return srv
}

// initSession creates a stream session and runs the initialize handshake.
func initSession(t *testing.T, srv *Server) *Session {
	t.Helper()
	sess := srv.registry.Create(KindStream)
	resp := srv.handle(context.Background(), sess, []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`))
	require.NotNil(t, resp)
	return sess
}

func decodeResponse(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestNewServer_RequiresSearch(t *testing.T) {
	_, err := NewServer(&Ports{}, zap.NewNop())
	require.ErrorIs(t, err, ErrMissingSearchService)
}

func TestHandle_Initialize(t *testing.T) {
	srv := newTestServer(t, &fakeSearchService{})
	sess := srv.registry.Create(KindStream)

	resp := decodeResponse(t, srv.handle(context.Background(), sess,
		[]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)))

	result := resp["result"].(map[string]any)
	assert.Equal(t, protocolVersion, result["protocolVersion"])
	info := result["serverInfo"].(map[string]any)
	assert.Equal(t, "doclens", info["name"])

	t.Run("second initialize rejected", func(t *testing.T) {
		resp := decodeResponse(t, srv.handle(context.Background(), sess,
			[]byte(`{"jsonrpc":"2.0","id":2,"method":"initialize","params":{}}`)))
		rpcErr := resp["error"].(map[string]any)
		assert.Equal(t, float64(codeInvalidRequest), rpcErr["code"])
	})
}

func TestHandle_RequiresInitialize(t *testing.T) {
	srv := newTestServer(t, &fakeSearchService{})
	sess := srv.registry.Create(KindStream)

	resp := decodeResponse(t, srv.handle(context.Background(), sess,
		[]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)))

	rpcErr := resp["error"].(map[string]any)
	assert.Equal(t, float64(codeInvalidRequest), rpcErr["code"])
	assert.Contains(t, rpcErr["message"], "not initialized")
}

func TestHandle_Ping(t *testing.T) {
	srv := newTestServer(t, &fakeSearchService{})
	sess := initSession(t, srv)

	resp := decodeResponse(t, srv.handle(context.Background(), sess,
		[]byte(`{"jsonrpc":"2.0","id":7,"method":"ping"}`)))
	assert.NotNil(t, resp["result"])
	assert.Nil(t, resp["error"])
}

func TestHandle_ToolsList(t *testing.T) {
	srv := newTestServer(t, &fakeSearchService{})
	sess := initSession(t, srv)

	resp := decodeResponse(t, srv.handle(context.Background(), sess,
		[]byte(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)))

	result := resp["result"].(map[string]any)
	tools := result["tools"].([]any)
	require.Len(t, tools, 2)

	names := []string{
		tools[0].(map[string]any)["name"].(string),
		tools[1].(map[string]any)["name"].(string),
	}
	assert.ElementsMatch(t, []string{"search", "fetch_section"}, names)
}

func TestHandle_MalformedFrame(t *testing.T) {
	srv := newTestServer(t, &fakeSearchService{})
	sess := initSession(t, srv)

	resp := decodeResponse(t, srv.handle(context.Background(), sess, []byte(`{nope`)))
	rpcErr := resp["error"].(map[string]any)
	assert.Equal(t, float64(codeParseError), rpcErr["code"])
}

func TestHandle_UnknownMethod(t *testing.T) {
	srv := newTestServer(t, &fakeSearchService{})
	sess := initSession(t, srv)

	resp := decodeResponse(t, srv.handle(context.Background(), sess,
		[]byte(`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`)))
	rpcErr := resp["error"].(map[string]any)
	assert.Equal(t, float64(codeMethodNotFound), rpcErr["code"])
}

func TestHandle_NotificationHasNoResponse(t *testing.T) {
	srv := newTestServer(t, &fakeSearchService{})
	sess := initSession(t, srv)

	resp := srv.handle(context.Background(), sess,
		[]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	assert.Nil(t, resp)
}

func callTool(t *testing.T, srv *Server, sess *Session, name string, args string) map[string]any {
	t.Helper()
	frame := fmt.Sprintf(`{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":%q,"arguments":%s}}`, name, args)
	return decodeResponse(t, srv.handle(context.Background(), sess, []byte(frame)))
}

func TestToolCall_Search(t *testing.T) {
	search := &fakeSearchService{
		results: []domain.SearchResult{{
			Content:  "Staking is easy. You deposit SOL. You receive JitoSOL.",
			Score:    0.93,
			Metadata: domain.ChunkMetadata{Title: "Staking", Section: "jitosol"},
		}},
	}
	srv := newTestServer(t, search)
	sess := initSession(t, srv)

	resp := callTool(t, srv, sess, "search", `{"query":"How do I stake?","limit":3}`)

	result := resp["result"].(map[string]any)
	assert.Nil(t, result["isError"])
	content := result["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "text", content["type"])
	assert.Contains(t, content["text"], "## Staking (jitosol)")
	assert.Contains(t, content["text"], "You receive JitoSOL.")

	assert.Equal(t, "How do I stake?", search.lastQuery)
	assert.Equal(t, 3, search.lastLimit)
}

func TestToolCall_SearchFailureIsErrorResult(t *testing.T) {
	search := &fakeSearchService{
		searchErr: &domain.ProviderError{Provider: "embedding", Op: "embed", Err: errProviderDown},
	}
	srv := newTestServer(t, search)
	sess := initSession(t, srv)

	resp := callTool(t, srv, sess, "search", `{"query":"q"}`)

	require.Nil(t, resp["error"], "tool failures must not become protocol faults")
	result := resp["result"].(map[string]any)
	assert.Equal(t, true, result["isError"])
	content := result["content"].([]any)[0].(map[string]any)
	assert.Contains(t, content["text"], "embedding provider")
}

func TestToolCall_FetchSection(t *testing.T) {
	search := &fakeSearchService{
		chunks: []domain.SectionChunk{{
			Content:  "chunk",
			Metadata: domain.ChunkMetadata{Section: "jitosol", Title: "Staking"},
		}},
	}
	srv := newTestServer(t, search)
	sess := initSession(t, srv)

	resp := callTool(t, srv, sess, "fetch_section", `{"section":"jitosol"}`)

	result := resp["result"].(map[string]any)
	assert.Nil(t, result["isError"])
	content := result["content"].([]any)[0].(map[string]any)

	var payload []map[string]any
	require.NoError(t, json.Unmarshal([]byte(content["text"].(string)), &payload))
	require.Len(t, payload, 1)
	assert.Equal(t, "chunk", payload[0]["content"])
}

func TestToolCall_FetchSectionUnknown(t *testing.T) {
	srv := newTestServer(t, &fakeSearchService{})
	sess := initSession(t, srv)

	resp := callTool(t, srv, sess, "fetch_section", `{"section":"nope"}`)

	result := resp["result"].(map[string]any)
	assert.Equal(t, true, result["isError"])
	content := result["content"].([]any)[0].(map[string]any)
	assert.Contains(t, content["text"], `section "nope" not found`)
}

func TestToolCall_UnknownTool(t *testing.T) {
	srv := newTestServer(t, &fakeSearchService{})
	sess := initSession(t, srv)

	resp := callTool(t, srv, sess, "nonsense", `{}`)
	rpcErr := resp["error"].(map[string]any)
	assert.Equal(t, float64(codeInvalidParams), rpcErr["code"])
}
