package voxflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession_Defaults(t *testing.T) {
	session, err := NewSession(WithAPIKey("test-key"))
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "none", session.LastBackendUsed())
}

func TestNewSession_ModelOverride(t *testing.T) {
	session, err := NewSession(
		WithAPIKey("test-key"),
		WithModels("gemini-2.0-flash", "gemini-2.0-pro"),
	)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Empty(t, session.History())
}
