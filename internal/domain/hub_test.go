package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHubStatus(t *testing.T) {
	h := NewHubStatus()
	require.False(t, h.IsAtHub(1))

	h.SetAtHub(1, true)
	require.True(t, h.IsAtHub(1))
	require.False(t, h.IsAtHub(2))

	h.ClearOnNewStop(1)
	require.False(t, h.IsAtHub(1))
}
