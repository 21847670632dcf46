// Package service 组合全部子系统，提供推荐服务的公共入口。
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recserve/cache"
	"github.com/rushteam/recserve/contingency"
	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/filter"
	"github.com/rushteam/recserve/model"
	"github.com/rushteam/recserve/pipeline"
	"github.com/rushteam/recserve/rank"
	"github.com/rushteam/recserve/rerank"
	"github.com/rushteam/recserve/score"
)

// 缓存 key 约定。模型发布 = 向模型 key 覆盖写入新引用：
// 读者要么拿到旧模型、要么拿到新模型，不存在新旧矩阵混用。
const (
	cacheKeyModel      = "model"
	cacheKeyPopularity = "model:popularity"
	cacheKeyUserPrefix = "user:"
)

// Config 是服务装配配置。Catalog / Users / Models 必填，其余自选。
type Config struct {
	Catalog      core.Catalog
	Users        core.UserStore
	Interactions core.InteractionStore
	Genres       core.GenreIndex
	Models       model.Store

	// Trainer 为空时使用默认超参数。
	Trainer *model.Trainer

	// Pipeline 为空时装配默认链路：
	// score.als → filter(owned, region) → rank.sort → rerank.log →
	// rerank.diversity → rerank.truncate
	Pipeline *pipeline.Pipeline

	// FallbackIDs 是静态兜底清单（稠密 id），容量应 >= 最大请求条数。
	FallbackIDs []int64

	// Workers 是 contingency 工作池大小，默认 2。
	Workers int

	// ResponseTimeout 是响应时限，默认 150ms。
	ResponseTimeout time.Duration

	// CacheMaxEntries / CacheMaxAge 约束进程内缓存。
	CacheMaxEntries int
	CacheMaxAge     time.Duration

	Logger zerolog.Logger
}

// Service 是推荐服务入口。所有方法可被任意并发调用：
// 模型是共享只读引用，请求路径只分配每次调用的临时状态。
type Service struct {
	catalog      core.Catalog
	users        core.UserStore
	interactions core.InteractionStore
	genres       core.GenreIndex
	models       model.Store
	trainer      *model.Trainer

	cache    *cache.Cache
	pipe     *pipeline.Pipeline
	exec     *contingency.Executor
	fallback contingency.Fallback
	log      zerolog.Logger
}

// New 创建服务实例。缓存、工作池等均在此一次性构造并显式持有，
// 不依赖任何进程级全局状态。
func New(cfg Config) (*Service, error) {
	if cfg.Catalog == nil || cfg.Users == nil || cfg.Models == nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			"service: catalog, users and models are required")
	}

	trainer := cfg.Trainer
	if trainer == nil {
		trainer = &model.Trainer{Opts: model.DefaultOptions()}
	}

	maxEntries := cfg.CacheMaxEntries
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	maxAge := cfg.CacheMaxAge
	if maxAge <= 0 {
		maxAge = time.Hour
	}

	s := &Service{
		catalog:      cfg.Catalog,
		users:        cfg.Users,
		interactions: cfg.Interactions,
		genres:       cfg.Genres,
		models:       cfg.Models,
		trainer:      trainer,
		cache:        cache.New(maxEntries, maxAge),
		fallback:     &contingency.StaticFallback{IDs: cfg.FallbackIDs},
		log:          cfg.Logger,
	}
	s.exec = contingency.NewExecutor(cfg.Workers, cfg.ResponseTimeout, s.log)

	s.pipe = cfg.Pipeline
	if s.pipe == nil {
		s.pipe = s.defaultPipeline()
	}
	return s, nil
}

// defaultPipeline 装配默认链路；打分节点绑定服务自身的缓存回源。
func (s *Service) defaultPipeline() *pipeline.Pipeline {
	nodes := []pipeline.Node{
		&score.ALSNode{
			Model:      s.PublishedModel,
			Popularity: s.PopularityModel,
		},
		&filter.Node{Filters: []filter.Filter{
			&filter.OwnedFilter{},
			&filter.RegionFilter{Catalog: s.catalog},
		}},
		&rank.SortNode{},
	}
	if s.interactions != nil {
		nodes = append(nodes, &rerank.InteractionLogNode{Store: s.interactions})
	}
	if s.genres != nil {
		nodes = append(nodes, &rerank.DiversityNode{Genres: s.genres})
	}
	nodes = append(nodes, &rerank.TruncateNode{})
	return &pipeline.Pipeline{Nodes: nodes}
}

// Recommend 为用户计算 n 条推荐，返回物品外部 id 的有序序列。
//
// 流程：解析用户（缓存回源）→ 在响应时限内跑 Pipeline → 截断 →
// 稠密 id 映射回外部 id → fire-and-forget 写曝光日志。
// 超时/模型缺失/链路失败一律转为兜底结果，不向调用方报错；
// 只有无效入参与用户不存在会返回错误。
func (s *Service) Recommend(ctx context.Context, userExternalID string, n int) ([]string, error) {
	if n <= 0 {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			fmt.Sprintf("service: invalid count %d", n))
	}

	user, err := s.resolveUser(ctx, userExternalID)
	if err != nil {
		return nil, err
	}

	rctx := &core.RecommendContext{
		UserExternalID: userExternalID,
		User:           user,
		N:              n,
	}

	// rctx 交给执行器后调用方不再写入：超时被放弃的任务可能仍持有它。
	// 兜底来源已体现在每个兜底候选的 source 标签上。
	items, _ := s.exec.Run(ctx, n, func(tctx context.Context) ([]*core.Item, error) {
		return s.pipe.Run(tctx, rctx, nil)
	}, s.fallback)
	if len(items) > n {
		items = items[:n]
	}

	out := make([]string, 0, len(items))
	logged := make([]*core.Item, 0, len(items))
	for _, it := range items {
		ext, err := s.externalItemID(ctx, it.ID)
		if err != nil {
			s.log.Debug().Int64("item_id", it.ID).Err(err).Msg("service: dropping unmapped item")
			continue
		}
		out = append(out, ext)
		logged = append(logged, it)
	}

	if s.interactions != nil {
		go s.appendRecommendLog(user.ID, logged)
	}
	return out, nil
}

// resolveUser 经缓存解析用户；NOT_FOUND 原样透出（由上层映射为 404 等价语义）。
//
// producer 使用与请求解耦的 context：同 key 的并发请求同步等待在飞结果，
// 持有 producer 的那个请求被取消时，不应连带其余等待方一起失败。
func (s *Service) resolveUser(ctx context.Context, externalID string) (*core.User, error) {
	pctx := context.WithoutCancel(ctx)
	v, err := s.cache.ComputeIfAbsent(cacheKeyUserPrefix+externalID, func() (any, error) {
		return s.users.GetUser(pctx, externalID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.User), nil
}

// externalItemID 把稠密 id 映射回外部 id（缓存回源）。
func (s *Service) externalItemID(ctx context.Context, id int64) (string, error) {
	key := fmt.Sprintf("item:ext:%d", id)
	pctx := context.WithoutCancel(ctx)
	v, err := s.cache.ComputeIfAbsent(key, func() (any, error) {
		it, err := s.catalog.GetItemByID(pctx, id)
		if err != nil {
			return nil, err
		}
		return it.ExternalID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// PublishedModel 返回当前已发布的主模型（缓存回源到 ModelStore）。
// 返回的引用只读共享。
func (s *Service) PublishedModel(ctx context.Context) (*model.FactorModel, error) {
	pctx := context.WithoutCancel(ctx)
	v, err := s.cache.ComputeIfAbsent(cacheKeyModel, func() (any, error) {
		return s.models.LoadLatest(pctx)
	})
	if err != nil {
		if core.IsModelUnavailable(err) {
			s.log.Warn().Msg("service: no published model, requests will fall back")
		}
		return nil, err
	}
	return v.(*model.FactorModel), nil
}

// PopularityModel 返回流行度备选模型。
// 重训时由交互计数构建并发布；尚未重训时退化为目录上的均匀计数
//（排序简并为 id 升序，仍是确定性的合法结果）。
func (s *Service) PopularityModel(ctx context.Context) (*model.FactorModel, error) {
	pctx := context.WithoutCancel(ctx)
	v, err := s.cache.ComputeIfAbsent(cacheKeyPopularity, func() (any, error) {
		ids, err := s.catalog.AllItemIDs(pctx)
		if err != nil {
			return nil, err
		}
		n := maxID(ids)
		counts := make([]float64, n)
		for _, id := range ids {
			counts[id-1] = 1
		}
		return model.BuildPopularity(counts), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.FactorModel), nil
}

// Warmup 预热进程内缓存：并行拉起主模型与流行度模型，
// 让首个请求不必承担冷加载延迟。尚无已发布模型不算失败（请求期走兜底）。
func (s *Service) Warmup(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := s.PublishedModel(gctx); err != nil && !core.IsModelUnavailable(err) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		_, err := s.PopularityModel(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Info().Msg("service: cache warmed up")
	return nil
}

// appendRecommendLog 记录本次曝光（带位次）。后台执行，失败只观测不重试。
func (s *Service) appendRecommendLog(userID int64, items []*core.Item) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	now := time.Now()
	for i, it := range items {
		rec := core.InteractionRecord{
			UserID:    userID,
			ItemID:    it.ID,
			Type:      core.InteractionRecommend,
			Rank:      i,
			Timestamp: now,
		}
		if err := s.interactions.Append(ctx, rec); err != nil {
			s.log.Debug().Err(err).Msg("service: append recommend log failed")
			return
		}
	}
}

// Close 释放服务持有的资源。
func (s *Service) Close() {
	s.exec.Close()
}

func maxID(ids []int64) int {
	var m int64
	for _, id := range ids {
		if id > m {
			m = id
		}
	}
	return int(m)
}
