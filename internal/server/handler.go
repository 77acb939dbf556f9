package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/voxflow/voxflow/agent"
	"github.com/voxflow/voxflow/llm"
	"github.com/voxflow/voxflow/speech"
	"github.com/voxflow/voxflow/types"
)

// SessionFactory builds a fresh conversation session for each connection.
type SessionFactory func() (*llm.Session, error)

// VoiceHandler upgrades HTTP requests to websocket conversations and runs a
// voice agent over each connection.
type VoiceHandler struct {
	newSession SessionFactory
	tts        speech.TTSProvider
	stt        speech.STTProvider
	logger     *zap.Logger
}

// NewVoiceHandler creates the websocket conversation handler.
func NewVoiceHandler(factory SessionFactory, logger *zap.Logger) *VoiceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoiceHandler{
		newSession: factory,
		logger:     logger.With(zap.String("component", "voice_handler")),
	}
}

// WithSpeech enables the audio path: inbound audio turns are transcribed with
// stt, and each reply chunk is followed by a synthesized audio frame from tts.
// Either provider may be nil to enable only one direction.
func (h *VoiceHandler) WithSpeech(tts speech.TTSProvider, stt speech.STTProvider) *VoiceHandler {
	h.tts = tts
	h.stt = stt
	return h
}

func (h *VoiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}

	session, err := h.newSession()
	if err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		_ = conn.Close(websocket.StatusInternalError, "session unavailable")
		return
	}

	a := agent.New(session, agent.Options{Logger: h.logger})
	room := newWSRoomSession(conn, h.tts, h.stt, h.logger)

	if err := a.Run(r.Context(), room); err != nil && r.Context().Err() == nil {
		h.logger.Info("conversation closed", zap.Error(err))
	}
}

// turnRequest is one inbound user utterance: spoken audio (base64 in JSON)
// or already-transcribed text.
type turnRequest struct {
	Text  string `json:"text"`
	Audio []byte `json:"audio,omitempty"`
}

// wsRoomSession adapts a websocket connection to the agent's room contract.
// Writes are mutex protected because websocket connections do not support
// concurrent writes.
type wsRoomSession struct {
	conn   *websocket.Conn
	tts    speech.TTSProvider
	stt    speech.STTProvider
	logger *zap.Logger

	mu      sync.Mutex
	history []types.Message
	closed  bool

	turnsOnce sync.Once
	turns     chan []types.Message
}

func newWSRoomSession(conn *websocket.Conn, tts speech.TTSProvider, stt speech.STTProvider, logger *zap.Logger) *wsRoomSession {
	return &wsRoomSession{
		conn:   conn,
		tts:    tts,
		stt:    stt,
		logger: logger.With(zap.String("component", "ws_room_session")),
		turns:  make(chan []types.Message, 1),
	}
}

// Connect seeds the opening turn: an empty history makes the agent greet the
// caller before any utterance arrives.
func (r *wsRoomSession) Connect(ctx context.Context) error {
	r.turns <- nil
	return nil
}

// Turns starts the reader on first use and returns the stable turn channel.
func (r *wsRoomSession) Turns(ctx context.Context) <-chan []types.Message {
	r.turnsOnce.Do(func() {
		go r.readLoop(ctx)
	})
	return r.turns
}

func (r *wsRoomSession) readLoop(ctx context.Context) {
	defer close(r.turns)

	for {
		_, data, err := r.conn.Read(ctx)
		if err != nil {
			return
		}

		var req turnRequest
		if err := json.Unmarshal(data, &req); err != nil {
			r.logger.Warn("discarding malformed turn", zap.Error(err))
			continue
		}

		text := req.Text
		if text == "" && len(req.Audio) > 0 {
			if r.stt == nil {
				r.logger.Warn("discarding audio turn, no transcriber configured")
				continue
			}
			result, err := r.stt.Transcribe(ctx, &speech.STTRequest{
				Audio: bytes.NewReader(req.Audio),
			})
			if err != nil {
				r.logger.Warn("transcription failed", zap.Error(err))
				continue
			}
			text = result.Text
		}

		r.mu.Lock()
		r.history = append(r.history, types.NewUserMessage(text))
		snapshot := make([]types.Message, len(r.history))
		copy(snapshot, r.history)
		r.mu.Unlock()

		select {
		case r.turns <- snapshot:
		case <-ctx.Done():
			return
		}
	}
}

// Send writes one response chunk and folds its text into the running history.
func (r *wsRoomSession) Send(ctx context.Context, chunk llm.StreamChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("connection closed")
	}

	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("marshal chunk: %w", err)
	}

	if err := r.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}

	if chunk.Delta.Content != "" {
		r.history = append(r.history, types.NewAssistantMessage(chunk.Delta.Content))
		if err := r.speakLocked(ctx, chunk.Delta.Content); err != nil {
			// Speech is best effort; the text frame already went out.
			r.logger.Warn("synthesis failed", zap.Error(err))
		}
	}
	return nil
}

// speakLocked synthesizes text and sends it as a binary frame. Callers hold
// the write mutex.
func (r *wsRoomSession) speakLocked(ctx context.Context, text string) error {
	if r.tts == nil {
		return nil
	}

	resp, err := r.tts.Synthesize(ctx, &speech.TTSRequest{Text: text})
	if err != nil {
		return err
	}
	defer resp.Audio.Close()

	audio, err := io.ReadAll(resp.Audio)
	if err != nil {
		return err
	}

	return r.conn.Write(ctx, websocket.MessageBinary, audio)
}

func (r *wsRoomSession) Disconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	return r.conn.Close(websocket.StatusNormalClosure, "closing")
}
