package benchmarks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hsm/definition"
)

func TestGeneratedMachines(t *testing.T) {
	t.Run("flat", func(t *testing.T) {
		e := MustEngine(GenFlat(3))
		assert.Equal(t, "s0", e.CurrentStateName())
		for _, want := range []string{"s1", "s2", "s0"} {
			require.True(t, e.HandleEvent("tick"))
			assert.Equal(t, want, e.CurrentStateName())
		}
	})

	t.Run("deep", func(t *testing.T) {
		e := MustEngine(GenDeep(4))
		assert.Equal(t, []string{"root", "a0", "a1", "a2", "a3", "ax"}, e.ActiveStates())
		require.True(t, e.HandleEvent("tick"))
		assert.Equal(t, "ay", e.CurrentStateName())
		require.True(t, e.HandleEvent("climb"))
		assert.Equal(t, []string{"root", "b0", "b1", "b2", "b3", "bx"}, e.ActiveStates())
		require.True(t, e.HandleEvent("climb"))
		assert.Equal(t, "ax", e.CurrentStateName())
	})

	t.Run("wide", func(t *testing.T) {
		e := MustEngine(GenWideGuards(5))
		assert.Equal(t, 4, e.Context().Int("k"))
		require.True(t, e.HandleEvent("tick"))
		assert.Equal(t, "main", e.CurrentStateName())
	})

	t.Run("yaml", func(t *testing.T) {
		def, err := definition.Parse(GenDefinitionYAML(GenDeep(2)))
		require.NoError(t, err)
		assert.Equal(t, GenDeep(2), def)
	})
}
