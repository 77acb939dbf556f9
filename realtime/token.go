// Package realtime provides access credentials and room administration for
// the realtime media backend. Tokens are signed JWTs carrying a video grant;
// the room client talks to the backend's Twirp HTTP API.
package realtime

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voxflow/voxflow/types"
)

// DefaultTokenTTL is the validity window for access tokens.
const DefaultTokenTTL = time.Hour

// VideoGrant describes what a participant is allowed to do in a room.
type VideoGrant struct {
	Room         string `json:"room,omitempty"`
	RoomJoin     bool   `json:"roomJoin,omitempty"`
	RoomCreate   bool   `json:"roomCreate,omitempty"`
	RoomList     bool   `json:"roomList,omitempty"`
	RoomAdmin    bool   `json:"roomAdmin,omitempty"`
	CanPublish   *bool  `json:"canPublish,omitempty"`
	CanSubscribe *bool  `json:"canSubscribe,omitempty"`
}

// JoinGrant returns a grant allowing a participant to join and fully
// participate in the named room.
func JoinGrant(room string) VideoGrant {
	yes := true
	return VideoGrant{
		Room:         room,
		RoomJoin:     true,
		CanPublish:   &yes,
		CanSubscribe: &yes,
	}
}

// adminGrant covers the room administration API surface.
func adminGrant() VideoGrant {
	return VideoGrant{
		RoomCreate: true,
		RoomList:   true,
		RoomAdmin:  true,
	}
}

// Claims is the JWT claim set the media backend expects.
type Claims struct {
	jwt.RegisteredClaims
	Name  string     `json:"name,omitempty"`
	Video VideoGrant `json:"video"`
}

// AccessToken builds signed access tokens for a single API key pair.
type AccessToken struct {
	apiKey    string
	apiSecret string
	identity  string
	name      string
	grant     VideoGrant
	ttl       time.Duration
}

// NewAccessToken creates a token builder for the given key pair.
func NewAccessToken(apiKey, apiSecret string) *AccessToken {
	return &AccessToken{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		ttl:       DefaultTokenTTL,
	}
}

// SetIdentity sets the participant identity (the JWT subject).
func (t *AccessToken) SetIdentity(identity string) *AccessToken {
	t.identity = identity
	return t
}

// SetName sets the participant display name.
func (t *AccessToken) SetName(name string) *AccessToken {
	t.name = name
	return t
}

// SetGrant sets the video grant embedded in the token.
func (t *AccessToken) SetGrant(grant VideoGrant) *AccessToken {
	t.grant = grant
	return t
}

// SetTTL overrides the default token validity window.
func (t *AccessToken) SetTTL(ttl time.Duration) *AccessToken {
	if ttl > 0 {
		t.ttl = ttl
	}
	return t
}

// JWT signs and returns the token.
func (t *AccessToken) JWT() (string, error) {
	if t.apiKey == "" || t.apiSecret == "" {
		return "", types.NewError(types.ErrConfigMissing, "realtime API key and secret are required")
	}
	if t.identity == "" {
		return "", types.NewError(types.ErrConfigMissing, "participant identity is required")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.apiKey,
			Subject:   t.identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Name:  t.name,
		Video: t.grant,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(t.apiSecret))
	if err != nil {
		return "", types.NewError(types.ErrConfigInvalid, "failed to sign access token").WithCause(err)
	}
	return signed, nil
}
