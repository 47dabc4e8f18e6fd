package definition_test

import (
	"testing"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/definition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinActions(t *testing.T) {
	reg := definition.NewRegistry()
	ctx := hsm.NewContext()

	run := func(refs ...string) {
		t.Helper()
		a, err := reg.Actions(refs)
		require.NoError(t, err)
		a(ctx)
	}

	run("inc:n", "inc:n", "dec:n")
	assert.Equal(t, 1, ctx.Int("n"))

	run("reset:n")
	assert.Equal(t, 0, ctx.Get("n"))

	run("set:mode=fast", "set:speed=3", "set:ratio=0.5", "set:on=true")
	assert.Equal(t, "fast", ctx.Get("mode"))
	assert.Equal(t, 3, ctx.Get("speed"))
	assert.Equal(t, 0.5, ctx.Get("ratio"))
	assert.Equal(t, true, ctx.Get("on"))

	// counters leave non-integer values alone
	run("inc:mode")
	assert.Equal(t, "fast", ctx.Get("mode"))

	a, err := reg.Actions(nil)
	require.NoError(t, err)
	assert.Nil(t, a)

	for _, ref := range []string{"launch", "inc:", "set:novalue", "explode:x"} {
		_, err := reg.Action(ref)
		assert.Error(t, err, ref)
	}
}

func TestGuardExpressions(t *testing.T) {
	ctx := hsm.NewContext()
	ctx.Set("count", 3)
	ctx.Set("ratio", 0.5)
	ctx.Set("mode", "auto")
	ctx.Set("armed", true)

	cases := []struct {
		expr string
		want bool
	}{
		{"count == 3", true},
		{"count != 3", false},
		{"count > 2", true},
		{"count >= 3", true},
		{"count < 3", false},
		{"count <= 2", false},
		{"ratio < 1", true},
		{"ratio == 0.5", true},
		{"mode == auto", true},
		{"mode != manual", true},
		{"mode > 1", false},
		{"armed == true", true},
		{"armed == false", false},
		{"missing == 0", false},
		{"missing != 0", true},
		{"missing > -1", false},
	}
	reg := definition.NewRegistry()
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			g, err := reg.Guard(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, g(ctx))
		})
	}
}

func TestGuardParseErrors(t *testing.T) {
	reg := definition.NewRegistry()
	for _, expr := range []string{"ready", "count ~ 3", "count > many", "a == b == c"} {
		_, err := reg.Guard(expr)
		assert.Error(t, err, expr)
	}
	_, err := reg.Guard("ready")
	assert.ErrorIs(t, err, definition.ErrUnknownReference)
}

func TestRegisteredNamesTakePrecedence(t *testing.T) {
	reg := definition.NewRegistry().
		RegisterAction("inc:n", func(c *hsm.Context) { c.Set("n", "custom") })
	a, err := reg.Action("inc:n")
	require.NoError(t, err)

	ctx := hsm.NewContext()
	a(ctx)
	assert.Equal(t, "custom", ctx.Get("n"))
}
