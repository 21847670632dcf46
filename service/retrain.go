package service

import (
	"context"
	"sort"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/model"
)

// Retrain 以给定的隐式反馈对重训主模型并原子发布。
//
// 单写者口径：重训假定在请求路径之外串行执行，不与服务请求争用；
// 发布是对缓存 key 的整体覆盖写，读者无感知切换。
//
// 数值失败（NUMERIC_FAILURE）时中止本次重训：不持久化、不发布，
// 旧模型继续服务。
func (s *Service) Retrain(ctx context.Context, pairs []model.Pair, nUsers, nItems int) error {
	m, err := s.trainer.Fit(pairs, nUsers, nItems)
	if err != nil {
		s.log.Error().Err(err).Msg("service: retrain aborted")
		return err
	}
	if m.Empty() {
		s.log.Warn().Msg("service: retrain produced empty model, keeping previous")
		return model.ErrModelUnavailable
	}

	if err := s.models.Save(ctx, m); err != nil {
		s.log.Error().Err(err).Msg("service: persist model failed")
		return err
	}

	// 流行度备选模型随重训一起刷新（物品因子 = 交互计数）
	counts := make([]float64, nItems)
	for _, p := range pairs {
		w := p.Score
		if w == 0 {
			w = 1
		}
		counts[p.Item] += w
	}
	pop := model.BuildPopularity(counts)

	s.cache.Set(cacheKeyModel, m)
	s.cache.Set(cacheKeyPopularity, pop)
	s.log.Info().
		Int("users", m.NumUsers()).
		Int("items", m.NumItems()).
		Int("factors", m.Factors()).
		Msg("service: model retrained and published")
	return nil
}

// RetrainFromLog 从交互日志构建训练对并重训：click/acquire 记为正反馈、
// drop 记为负反馈并按 (user, item) 累加；recommend 只是曝光，不计入。
//
// 要求交互存储支持全量导出（core.InteractionDump）。
func (s *Service) RetrainFromLog(ctx context.Context) error {
	dump, ok := s.interactions.(core.InteractionDump)
	if !ok {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			"service: interaction store does not support bulk export")
	}
	recs, err := dump.All(ctx)
	if err != nil {
		return err
	}

	type cell struct{ user, item int64 }
	counts := make(map[cell]float64)
	var maxUser int64
	for _, rec := range recs {
		var delta float64
		switch rec.Type {
		case core.InteractionClick, core.InteractionAcquire:
			delta = 1
		case core.InteractionDrop:
			delta = -1
		default:
			continue
		}
		counts[cell{rec.UserID, rec.ItemID}] += delta
		if rec.UserID > maxUser {
			maxUser = rec.UserID
		}
	}

	// 物品维度取目录全量，保证打分覆盖所有在架物品
	ids, err := s.catalog.AllItemIDs(ctx)
	if err != nil {
		return err
	}
	var maxItem int64
	for _, id := range ids {
		if id > maxItem {
			maxItem = id
		}
	}

	pairs := make([]model.Pair, 0, len(counts))
	for c, v := range counts {
		if v == 0 {
			continue
		}
		pairs = append(pairs, model.Pair{User: int(c.user) - 1, Item: int(c.item) - 1, Score: v})
	}
	// 固定遍历顺序，重训结果与 map 迭代序无关
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].User != pairs[j].User {
			return pairs[i].User < pairs[j].User
		}
		return pairs[i].Item < pairs[j].Item
	})
	return s.Retrain(ctx, pairs, int(maxUser), int(maxItem))
}
