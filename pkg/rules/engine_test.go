// Test Type: Unit Test
// Description: Tests for condition registration, evaluation and validation

package rules_test

import (
	"testing"

	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/rules"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testContext struct {
	vars  map[string]string
	packs map[string]bool
}

func (c *testContext) Variable(name string) (string, bool) {
	v, ok := c.vars[name]
	return v, ok
}

func (c *testContext) IsPackSelected(name string) bool {
	return c.packs[name]
}

func newContext(vars map[string]string) *testContext {
	return &testContext{vars: vars, packs: map[string]bool{}}
}

func osEngine(t *testing.T) *rules.Engine {
	t.Helper()
	e := rules.NewEngine()
	require.NoError(t, e.Add(&rules.VariableCondition{Base: rules.Base{ConditionID: "cond1"}, Name: "os", Value: "windows"}))
	require.NoError(t, e.Add(&rules.VariableCondition{Base: rules.Base{ConditionID: "cond2"}, Name: "os", Value: "unix"}))
	return e
}

func TestEngine_Add(t *testing.T) {
	t.Run("duplicate_id_rejected", func(t *testing.T) {
		e := osEngine(t)
		err := e.Add(&rules.EmptyCondition{Base: rules.Base{ConditionID: "cond1"}, Variable: "x"})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrConditionInvalid))
	})

	t.Run("missing_id_rejected", func(t *testing.T) {
		err := rules.NewEngine().Add(&rules.EmptyCondition{Variable: "x"})
		assert.True(t, errors.IsErrorCode(err, errors.ErrConditionInvalid))
	})

	t.Run("ids_keep_registration_order", func(t *testing.T) {
		assert.Equal(t, []string{"cond1", "cond2"}, osEngine(t).IDs())
	})
}

func TestEngine_IsConditionTrue(t *testing.T) {
	e := osEngine(t)

	ok, err := e.IsConditionTrue("cond1", newContext(map[string]string{"os": "windows"}))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.IsConditionTrue("cond2", newContext(map[string]string{"os": "windows"}))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.IsConditionTrue("cond1", newContext(map[string]string{}))
	require.NoError(t, err)
	assert.False(t, ok, "unset variable never equals a value")
}

func TestEngine_NotCachedAcrossChanges(t *testing.T) {
	e := osEngine(t)
	ctx := newContext(map[string]string{"os": "windows"})

	ok, err := e.IsConditionTrue("cond1", ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ctx.vars["os"] = "unix"
	ok, err = e.IsConditionTrue("cond1", ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_UnknownCondition(t *testing.T) {
	e := osEngine(t)

	_, err := e.IsConditionTrue("missing", newContext(nil))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConditionUnknown))

	_, err = e.IsConditionTrue("cond1+missing", newContext(map[string]string{"os": "windows"}))
	assert.True(t, errors.IsErrorCode(err, errors.ErrConditionUnknown))

	assert.NoError(t, e.Known("cond1|!cond2"))
	assert.True(t, errors.IsErrorCode(e.Known("cond1|nope"), errors.ErrConditionUnknown))
}

func TestEngine_Expressions(t *testing.T) {
	e := osEngine(t)
	require.NoError(t, e.Add(&rules.VariableCondition{Base: rules.Base{ConditionID: "x64"}, Name: "arch", Value: "amd64"}))

	ctx := newContext(map[string]string{"os": "unix", "arch": "amd64"})

	tests := []struct {
		expr string
		want bool
	}{
		{"!cond1", true},
		{"cond2+x64", true},
		{"cond1+x64", false},
		{"cond1|x64", true},
		{"cond2\\x64", false},
		{"cond1\\x64", true},
		{"!cond2|cond1", false},
		{"!(cond2+x64)", false},
		{"cond1|cond2+x64", true},
		{" cond2 + !cond1 ", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := e.IsConditionTrue(tt.expr, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_RefCycleIsAnError(t *testing.T) {
	e := rules.NewEngine()
	require.NoError(t, e.Add(&rules.RefCondition{Base: rules.Base{ConditionID: "a"}, Ref: "b"}))
	require.NoError(t, e.Add(&rules.NotCondition{Base: rules.Base{ConditionID: "b"}, Child: &rules.RefCondition{Ref: "a"}}))

	_, err := e.IsConditionTrue("a", newContext(nil))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConditionInvalid))

	err = e.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConditionInvalid))
}

func TestEngine_Validate(t *testing.T) {
	t.Run("valid_refs", func(t *testing.T) {
		e := osEngine(t)
		require.NoError(t, e.Add(&rules.OrCondition{
			Base:     rules.Base{ConditionID: "any"},
			Children: []rules.Condition{&rules.RefCondition{Ref: "cond1"}, &rules.RefCondition{Ref: "cond2"}},
		}))
		assert.NoError(t, e.Validate())
	})

	t.Run("dangling_ref", func(t *testing.T) {
		e := rules.NewEngine()
		require.NoError(t, e.Add(&rules.RefCondition{Base: rules.Base{ConditionID: "a"}, Ref: "ghost"}))
		assert.True(t, errors.IsErrorCode(e.Validate(), errors.ErrConditionUnknown))
	})
}

func TestEngine_Variables(t *testing.T) {
	e := osEngine(t)
	require.NoError(t, e.Add(&rules.AndCondition{
		Base: rules.Base{ConditionID: "big"},
		Children: []rules.Condition{
			&rules.RefCondition{Ref: "cond1"},
			&rules.CompareCondition{Arg1: "${mem}", Arg2: "${min.mem}", Operator: rules.OpGreaterEqual},
		},
	}))

	names, err := e.Variables("big")
	require.NoError(t, err)
	assert.Equal(t, []string{"mem", "min.mem", "os"}, names)

	names, err = e.Variables("!cond2")
	require.NoError(t, err)
	assert.Equal(t, []string{"os"}, names)

	_, err = e.Variables("ghost")
	assert.True(t, errors.IsErrorCode(err, errors.ErrConditionUnknown))
}

func TestEngine_PackSelection(t *testing.T) {
	e := rules.NewEngine()
	require.NoError(t, e.Add(&rules.PackSelectionCondition{Base: rules.Base{ConditionID: "docs"}, Pack: "Documentation"}))

	ctx := newContext(nil)
	ok, err := e.IsConditionTrue("docs", ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ctx.packs["Documentation"] = true
	ok, err = e.IsConditionTrue("docs", ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEngine_FileExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/opt/app/installed.marker", []byte("x"), 0644))

	e := rules.NewEngine(rules.WithFS(fs))
	require.NoError(t, e.Add(&rules.ExistsCondition{Base: rules.Base{ConditionID: "installed"}, File: "${INSTALL_PATH}/installed.marker"}))

	ok, err := e.IsConditionTrue("installed", newContext(map[string]string{"INSTALL_PATH": "/opt/app"}))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.IsConditionTrue("installed", newContext(map[string]string{"INSTALL_PATH": "/srv/app"}))
	require.NoError(t, err)
	assert.False(t, ok)
}
