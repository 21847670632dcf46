// Package config 提供配置驱动的 Pipeline 装配：内置节点的类型化注册表。
// 节点类型在启动期显式注册、按名字查找构建，不做任何运行时反射加载。
package config

import (
	"fmt"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/filter"
	"github.com/rushteam/recserve/pipeline"
	"github.com/rushteam/recserve/pkg/conv"
	"github.com/rushteam/recserve/rank"
	"github.com/rushteam/recserve/rerank"
	"github.com/rushteam/recserve/score"
)

// Deps 汇集节点构建所需的协作方依赖。配置只描述链路形状与参数，
// 外部依赖一律由装配方显式注入。
type Deps struct {
	Catalog      core.Catalog
	Interactions core.InteractionStore
	Genres       core.GenreIndex

	// Model / Popularity 是打分节点的模型回源（通常绑定 service 的缓存）。
	Model      score.ModelProvider
	Popularity score.ModelProvider
}

// NewFactory 返回注册了全部内置节点类型的工厂：
// score.als / filter / rank.sort / rerank.log / rerank.diversity / rerank.truncate
func NewFactory(deps Deps) *pipeline.NodeFactory {
	f := pipeline.NewNodeFactory()

	f.Register("score.als", func(_ map[string]any) (pipeline.Node, error) {
		if deps.Model == nil {
			return nil, fmt.Errorf("score.als: model provider not configured")
		}
		return &score.ALSNode{Model: deps.Model, Popularity: deps.Popularity}, nil
	})

	f.Register("filter", func(cfg map[string]any) (pipeline.Node, error) {
		return buildFilterNode(deps, cfg)
	})

	f.Register("rank.sort", func(_ map[string]any) (pipeline.Node, error) {
		return &rank.SortNode{}, nil
	})

	f.Register("rerank.log", func(cfg map[string]any) (pipeline.Node, error) {
		if deps.Interactions == nil {
			return nil, fmt.Errorf("rerank.log: interaction store not configured")
		}
		return &rerank.InteractionLogNode{
			Store: deps.Interactions,
			Limit: int(conv.ConfigGetInt64(cfg, "limit", 0)),
		}, nil
	})

	f.Register("rerank.diversity", func(cfg map[string]any) (pipeline.Node, error) {
		if deps.Genres == nil {
			return nil, fmt.Errorf("rerank.diversity: genre index not configured")
		}
		return &rerank.DiversityNode{
			Genres: deps.Genres,
			Alpha:  conv.ConfigGetFloat64(cfg, "alpha", 0),
			Lambda: conv.ConfigGetFloat64(cfg, "lambda", 0),
			Window: int(conv.ConfigGetInt64(cfg, "window", 0)),
		}, nil
	})

	f.Register("rerank.truncate", func(cfg map[string]any) (pipeline.Node, error) {
		return &rerank.TruncateNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
	})

	return f
}

// buildFilterNode 组装过滤节点：config["filters"] 是过滤器列表。
//
//	filters:
//	  - type: owned
//	  - type: region
//	  - type: expr
//	    expr: 'item.meta.tier == "premium"'
func buildFilterNode(deps Deps, cfg map[string]any) (pipeline.Node, error) {
	raw, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filter: filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(raw))
	for _, fc := range raw {
		fm, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		switch t := conv.ConfigGet[string](fm, "type", ""); t {
		case "owned":
			filters = append(filters, &filter.OwnedFilter{})
		case "region":
			if deps.Catalog == nil {
				return nil, fmt.Errorf("filter: region filter needs a catalog")
			}
			filters = append(filters, &filter.RegionFilter{Catalog: deps.Catalog})
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet[string](fm, "expr", ""))
			if err != nil {
				return nil, fmt.Errorf("filter: %w", err)
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("filter: unknown filter type %q", t)
		}
	}
	return &filter.Node{Filters: filters}, nil
}
