package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	prev := global
	t.Cleanup(func() { global = prev })

	l, err := Init("debug", "console")
	require.NoError(t, err)
	assert.Same(t, l, L())

	_, err = Init("loud", "json")
	assert.Error(t, err)

	_, err = Init("info", "xml")
	assert.Error(t, err)
}
