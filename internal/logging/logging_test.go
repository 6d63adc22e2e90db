package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	l, err := New(false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))

	d, err := New(true)
	require.NoError(t, err)
	assert.True(t, d.Core().Enabled(zap.DebugLevel))
}

func TestOr(t *testing.T) {
	assert.NotNil(t, Or(nil))
	l := zap.NewExample()
	assert.Same(t, l, Or(l))
}
