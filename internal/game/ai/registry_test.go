package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/shipsim/internal/game/ai"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := ai.NewRegistry()
	require.NoError(t, reg.Register("weighted", ai.NewWeightedPolicy(fixedSrc{val: 0}, 0)))
	require.NoError(t, reg.Register("idle", ai.IdlePolicy{}))

	p, ok := reg.Policy("weighted")
	assert.True(t, ok)
	assert.NotNil(t, p)
	assert.Equal(t, []string{"idle", "weighted"}, reg.Names())
}

func TestRegistry_Collision(t *testing.T) {
	reg := ai.NewRegistry()
	require.NoError(t, reg.Register("idle", ai.IdlePolicy{}))
	assert.Error(t, reg.Register("idle", ai.IdlePolicy{}))
	assert.Error(t, reg.Register("", ai.IdlePolicy{}))
	assert.Error(t, reg.Register("none", nil))
}

func TestRegistry_NotFound(t *testing.T) {
	_, ok := ai.NewRegistry().Policy("missing")
	assert.False(t, ok)
}
