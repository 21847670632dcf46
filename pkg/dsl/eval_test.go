package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recserve/core"
)

func TestPredicate_Eval(t *testing.T) {
	item := core.NewItem(42)
	item.Score = 0.8
	item.Meta = map[string]any{"tier": "premium"}
	item.PutLabel("masked", core.Label{Value: "true", Source: "filter.owned"})

	rctx := &core.RecommendContext{
		UserExternalID: "alice",
		N:              10,
		User:           &core.User{Locale: "us"},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{`item.score > 0.5`, true},
		{`item.score > 0.9`, false},
		{`item.id == 42`, true},
		{`item.meta.tier == "premium"`, true},
		{`label.masked.source == "filter.owned"`, true},
		{`rctx.locale == "us" && rctx.n >= 10`, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Compile(tt.expr)
			require.NoError(t, err)
			got, err := p.Eval(item, rctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredicate_EmptyExpressionIsTrue(t *testing.T) {
	p, err := Compile("")
	require.NoError(t, err)
	got, err := p.Eval(core.NewItem(1), nil)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestCompile_SyntaxError(t *testing.T) {
	_, err := Compile("item.score >")
	assert.Error(t, err)
}

func TestPredicate_NonBooleanResult(t *testing.T) {
	p, err := Compile(`item.score + 1.0`)
	require.NoError(t, err)

	_, err = p.Eval(core.NewItem(1), nil)
	assert.Error(t, err, "non-boolean expressions must fail at eval time")
}
