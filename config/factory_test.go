package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/model"
	"github.com/rushteam/recserve/pipeline"
	"github.com/rushteam/recserve/store"
)

const pipelineYAML = `
pipeline:
  name: default
  nodes:
    - type: score.als
    - type: filter
      config:
        filters:
          - type: owned
          - type: region
          - type: expr
            expr: 'item.score < 0.0'
    - type: rank.sort
    - type: rerank.log
      config:
        limit: 50
    - type: rerank.diversity
      config:
        alpha: 0.85
        lambda: 0.95
    - type: rerank.truncate
`

func testDeps() Deps {
	catalog := store.NewMemoryCatalog(&core.Item{ID: 1, ExternalID: "x"})
	provider := func(context.Context) (*model.FactorModel, error) {
		return model.BuildPopularity([]float64{1}), nil
	}
	return Deps{
		Catalog:      catalog,
		Interactions: store.NewMemoryInteractionStore(),
		Genres:       catalog,
		Model:        provider,
		Popularity:   provider,
	}
}

func TestNewFactory_BuildsFullPipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(pipelineYAML), 0o644))

	cfg, err := pipeline.LoadFromYAML(path)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Pipeline.Name)

	p, err := cfg.BuildPipeline(NewFactory(testDeps()))
	require.NoError(t, err)
	require.Len(t, p.Nodes, 6)

	wantKinds := []pipeline.Kind{
		pipeline.KindScore,
		pipeline.KindFilter,
		pipeline.KindRank,
		pipeline.KindReRank,
		pipeline.KindReRank,
		pipeline.KindTruncate,
	}
	for i, node := range p.Nodes {
		assert.Equal(t, wantKinds[i], node.Kind(), "node %d (%s)", i, node.Name())
	}
}

func TestNewFactory_MissingDependencies(t *testing.T) {
	tests := []struct {
		name     string
		nodeType string
		deps     Deps
	}{
		{"score without model provider", "score.als", Deps{}},
		{"rerank.log without store", "rerank.log", Deps{}},
		{"rerank.diversity without genre index", "rerank.diversity", Deps{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactory(tt.deps).Build(tt.nodeType, nil)
			assert.Error(t, err)
		})
	}
}

func TestNewFactory_UnknownTypes(t *testing.T) {
	f := NewFactory(testDeps())

	_, err := f.Build("recall.vector", nil)
	assert.Error(t, err)

	_, err = f.Build("filter", map[string]any{
		"filters": []any{map[string]any{"type": "nope"}},
	})
	assert.Error(t, err)
}
