package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voxflow/voxflow/internal/metrics"
	"github.com/voxflow/voxflow/llm"
	"github.com/voxflow/voxflow/speech"
	"github.com/voxflow/voxflow/testutil/mocks"
)

func newTestServer(t *testing.T, fast, advanced llm.Provider) *httptest.Server {
	t.Helper()

	factory := func() (*llm.Session, error) {
		return llm.NewSession(map[string]llm.Provider{
			llm.BackendFast:     fast,
			llm.BackendAdvanced: advanced,
		}, llm.SessionOptions{})
	}

	collector := metrics.NewCollector("voxflow", zap.NewNop())
	handler := Routes(NewVoiceHandler(factory, zap.NewNop()), collector, zap.NewNop())

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func readChunk(t *testing.T, ctx context.Context, conn *websocket.Conn) llm.StreamChunk {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var chunk llm.StreamChunk
	require.NoError(t, json.Unmarshal(data, &chunk))
	return chunk
}

func TestVoiceHandler_GreetsOnConnect(t *testing.T) {
	fast := mocks.NewMockProvider().WithResponse("Hi, how can I help?")
	advanced := mocks.NewMockProvider()
	server := newTestServer(t, fast, advanced)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	chunk := readChunk(t, ctx, conn)
	assert.Equal(t, "Hi, how can I help?", chunk.Delta.Content)
	assert.NotEmpty(t, chunk.ID)

	// The greeting turn used the fast backend with the default prompt.
	require.Equal(t, 1, fast.CallCount())
	req := fast.LastRequest()
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "Hello", req.Messages[0].Content)
}

func TestVoiceHandler_ConversationTurns(t *testing.T) {
	fast := mocks.NewMockProvider().WithResponse("fast reply")
	advanced := mocks.NewMockProvider().WithResponse("advanced reply")
	server := newTestServer(t, fast, advanced)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// Greeting comes first.
	greeting := readChunk(t, ctx, conn)
	assert.Equal(t, "fast reply", greeting.Delta.Content)

	send := func(text string) {
		payload, err := json.Marshal(map[string]string{"text": text})
		require.NoError(t, err)
		require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))
	}

	send("What is the capital of France?")
	chunk := readChunk(t, ctx, conn)
	assert.Equal(t, "fast reply", chunk.Delta.Content)

	send("Compare the tradeoffs and analyze both designs")
	chunk = readChunk(t, ctx, conn)
	assert.Equal(t, "advanced reply", chunk.Delta.Content)

	assert.Equal(t, 2, fast.CallCount())
	assert.Equal(t, 1, advanced.CallCount())
}

func TestVoiceHandler_MalformedTurnIgnored(t *testing.T) {
	fast := mocks.NewMockProvider().WithResponse("reply")
	advanced := mocks.NewMockProvider()
	server := newTestServer(t, fast, advanced)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	_ = readChunk(t, ctx, conn) // greeting

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("not json")))

	// A valid turn after the malformed one still gets answered.
	payload, _ := json.Marshal(map[string]string{"text": "hello again"})
	require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))

	chunk := readChunk(t, ctx, conn)
	assert.Equal(t, "reply", chunk.Delta.Content)
}

// stubTTS records synthesized texts and returns fixed audio.
type stubTTS struct {
	mu    sync.Mutex
	texts []string
}

func (s *stubTTS) Synthesize(ctx context.Context, req *speech.TTSRequest) (*speech.TTSResponse, error) {
	s.mu.Lock()
	s.texts = append(s.texts, req.Text)
	s.mu.Unlock()
	return &speech.TTSResponse{
		Provider: s.Name(),
		Format:   "mp3",
		Audio:    io.NopCloser(strings.NewReader("audio:" + req.Text)),
	}, nil
}

func (s *stubTTS) Name() string { return "stub-tts" }

// stubSTT maps audio payloads to fixed transcripts.
type stubSTT struct {
	transcripts map[string]string
}

func (s *stubSTT) Transcribe(ctx context.Context, req *speech.STTRequest) (*speech.STTResponse, error) {
	data, err := io.ReadAll(req.Audio)
	if err != nil {
		return nil, err
	}
	text, ok := s.transcripts[string(data)]
	if !ok {
		return nil, fmt.Errorf("unknown audio payload")
	}
	return &speech.STTResponse{Provider: s.Name(), Text: text}, nil
}

func (s *stubSTT) Name() string { return "stub-stt" }

func (s *stubSTT) SupportedFormats() []string { return []string{"wav"} }

func newSpeechTestServer(t *testing.T, fast, advanced llm.Provider, tts speech.TTSProvider, stt speech.STTProvider) *httptest.Server {
	t.Helper()

	factory := func() (*llm.Session, error) {
		return llm.NewSession(map[string]llm.Provider{
			llm.BackendFast:     fast,
			llm.BackendAdvanced: advanced,
		}, llm.SessionOptions{})
	}

	collector := metrics.NewCollector("voxflow", zap.NewNop())
	voice := NewVoiceHandler(factory, zap.NewNop()).WithSpeech(tts, stt)
	handler := Routes(voice, collector, zap.NewNop())

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestVoiceHandler_SpeaksReplies(t *testing.T) {
	fast := mocks.NewMockProvider().WithResponse("Hi, how can I help?")
	advanced := mocks.NewMockProvider()
	tts := &stubTTS{}
	server := newSpeechTestServer(t, fast, advanced, tts, &stubSTT{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// The greeting turn produces a text frame and then its spoken form.
	chunk := readChunk(t, ctx, conn)
	assert.Equal(t, "Hi, how can I help?", chunk.Delta.Content)

	kind, audio, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageBinary, kind)
	assert.Equal(t, "audio:Hi, how can I help?", string(audio))

	tts.mu.Lock()
	defer tts.mu.Unlock()
	assert.Equal(t, []string{"Hi, how can I help?"}, tts.texts)
}

func TestVoiceHandler_TranscribesAudioTurns(t *testing.T) {
	fast := mocks.NewMockProvider().WithResponse("It is noon.")
	advanced := mocks.NewMockProvider()
	stt := &stubSTT{transcripts: map[string]string{
		"spoken-question": "What time is it?",
	}}
	server := newSpeechTestServer(t, fast, advanced, &stubTTS{}, stt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// Skip the greeting text and audio frames.
	_ = readChunk(t, ctx, conn)
	_, _, err = conn.Read(ctx)
	require.NoError(t, err)

	payload, err := json.Marshal(turnRequest{Audio: []byte("spoken-question")})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))

	chunk := readChunk(t, ctx, conn)
	assert.Equal(t, "It is noon.", chunk.Delta.Content)

	// The backend saw the transcript, not the audio bytes.
	req := fast.LastRequest()
	require.NotNil(t, req)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "What time is it?", req.Messages[0].Content)
}

func TestVoiceHandler_TranscriptionFailureSkipsTurn(t *testing.T) {
	fast := mocks.NewMockProvider().WithResponse("reply")
	advanced := mocks.NewMockProvider()
	stt := &stubSTT{transcripts: map[string]string{"good-audio": "hello there"}}
	server := newSpeechTestServer(t, fast, advanced, &stubTTS{}, stt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	_ = readChunk(t, ctx, conn) // greeting text
	_, _, err = conn.Read(ctx)  // greeting audio
	require.NoError(t, err)

	// Untranscribable audio is dropped without tearing down the conversation.
	payload, _ := json.Marshal(turnRequest{Audio: []byte("garbled")})
	require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))

	payload, _ = json.Marshal(turnRequest{Audio: []byte("good-audio")})
	require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))

	chunk := readChunk(t, ctx, conn)
	assert.Equal(t, "reply", chunk.Delta.Content)
	assert.Equal(t, 2, fast.CallCount()) // greeting + the good turn
}

func TestVoiceHandler_SessionFactoryFailure(t *testing.T) {
	factory := func() (*llm.Session, error) {
		// No advanced backend: session construction must fail.
		return llm.NewSession(map[string]llm.Provider{
			llm.BackendFast: mocks.NewMockProvider(),
		}, llm.SessionOptions{})
	}

	collector := metrics.NewCollector("voxflow", zap.NewNop())
	handler := Routes(NewVoiceHandler(factory, zap.NewNop()), collector, zap.NewNop())
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// The server closes the connection instead of serving turns.
	_, _, err = conn.Read(ctx)
	require.Error(t, err)
}

func TestRoutes_Healthz(t *testing.T) {
	server := newTestServer(t, mocks.NewMockProvider(), mocks.NewMockProvider())

	resp, err := server.Client().Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestRoutes_Metrics(t *testing.T) {
	server := newTestServer(t, mocks.NewMockProvider(), mocks.NewMockProvider())

	resp, err := server.Client().Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
}
