package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voxflow/voxflow/types"
)

// Room describes a room on the media backend.
type Room struct {
	SID             string `json:"sid"`
	Name            string `json:"name"`
	NumParticipants int    `json:"num_participants"`
}

// AgentDispatch describes an agent assignment to a room.
type AgentDispatch struct {
	ID        string `json:"id"`
	AgentName string `json:"agent_name"`
	Room      string `json:"room"`
}

// RoomClient administers rooms and agent dispatches over the backend's
// Twirp HTTP API.
type RoomClient struct {
	baseURL   string
	apiKey    string
	apiSecret string
	client    *http.Client
	logger    *zap.Logger
}

// RoomClientOptions configures optional RoomClient collaborators.
type RoomClientOptions struct {
	Logger  *zap.Logger
	Timeout time.Duration
}

// NewRoomClient creates a client for the backend at url. The url may use a
// ws:// or wss:// scheme; it is converted to the matching HTTP scheme.
func NewRoomClient(url, apiKey, apiSecret string, opts *RoomClientOptions) (*RoomClient, error) {
	if url == "" {
		return nil, types.NewError(types.ErrConfigMissing, "realtime server URL is required")
	}
	if apiKey == "" || apiSecret == "" {
		return nil, types.NewError(types.ErrConfigMissing, "realtime API key and secret are required")
	}

	logger := zap.NewNop()
	timeout := 30 * time.Second
	if opts != nil {
		if opts.Logger != nil {
			logger = opts.Logger
		}
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
	}

	return &RoomClient{
		baseURL:   httpURL(url),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}, nil
}

// httpURL rewrites websocket schemes to their HTTP equivalents.
func httpURL(url string) string {
	switch {
	case strings.HasPrefix(url, "ws://"):
		url = "http://" + strings.TrimPrefix(url, "ws://")
	case strings.HasPrefix(url, "wss://"):
		url = "https://" + strings.TrimPrefix(url, "wss://")
	}
	return strings.TrimRight(url, "/")
}

// CreateRoom creates a room, or returns the existing room of the same name.
func (c *RoomClient) CreateRoom(ctx context.Context, name string) (*Room, error) {
	var room Room
	err := c.call(ctx, "/twirp/livekit.RoomService/CreateRoom",
		map[string]any{"name": name}, &room)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms returns the active rooms, optionally filtered by name.
func (c *RoomClient) ListRooms(ctx context.Context, names ...string) ([]Room, error) {
	req := map[string]any{}
	if len(names) > 0 {
		req["names"] = names
	}
	var resp struct {
		Rooms []Room `json:"rooms"`
	}
	if err := c.call(ctx, "/twirp/livekit.RoomService/ListRooms", req, &resp); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

// DeleteRoom removes a room and disconnects its participants.
func (c *RoomClient) DeleteRoom(ctx context.Context, name string) error {
	return c.call(ctx, "/twirp/livekit.RoomService/DeleteRoom",
		map[string]any{"room": name}, nil)
}

// CreateDispatch assigns the named agent to a room.
func (c *RoomClient) CreateDispatch(ctx context.Context, room, agentName string) (*AgentDispatch, error) {
	var dispatch AgentDispatch
	err := c.call(ctx, "/twirp/livekit.AgentDispatchService/CreateDispatch",
		map[string]any{"room": room, "agent_name": agentName}, &dispatch)
	if err != nil {
		return nil, err
	}
	return &dispatch, nil
}

// ListDispatches returns the agent dispatches for a room.
func (c *RoomClient) ListDispatches(ctx context.Context, room string) ([]AgentDispatch, error) {
	var resp struct {
		AgentDispatches []AgentDispatch `json:"agent_dispatches"`
	}
	err := c.call(ctx, "/twirp/livekit.AgentDispatchService/ListDispatch",
		map[string]any{"room": room}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.AgentDispatches, nil
}

// DeleteDispatch removes an agent dispatch from a room.
func (c *RoomClient) DeleteDispatch(ctx context.Context, room, dispatchID string) error {
	return c.call(ctx, "/twirp/livekit.AgentDispatchService/DeleteDispatch",
		map[string]any{"room": room, "dispatch_id": dispatchID}, nil)
}

// call performs one Twirp JSON request with a fresh admin token.
func (c *RoomClient) call(ctx context.Context, path string, req any, out any) error {
	token, err := NewAccessToken(c.apiKey, c.apiSecret).
		SetIdentity("room-admin").
		SetGrant(adminGrant()).
		JWT()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return types.NewError(types.ErrInvalidRequest, "failed to encode request").WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return types.NewError(types.ErrInvalidRequest, "failed to create request").WithCause(err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return types.NewError(types.ErrProviderUnavailable, "realtime server unreachable").
			WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("room service call failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return types.NewError(mapStatus(resp.StatusCode),
			fmt.Sprintf("room service error: status=%d body=%s", resp.StatusCode, string(body)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return types.NewError(types.ErrUpstreamError, "failed to decode response").WithCause(err)
		}
	}
	return nil
}

func mapStatus(status int) types.ErrorCode {
	switch {
	case status == http.StatusUnauthorized:
		return types.ErrUnauthorized
	case status == http.StatusForbidden:
		return types.ErrForbidden
	case status == http.StatusTooManyRequests:
		return types.ErrRateLimited
	case status >= 500:
		return types.ErrUpstreamError
	default:
		return types.ErrInvalidRequest
	}
}
