package model

import (
	"context"

	"github.com/rushteam/recserve/core"
)

// Store 是训练产物的持久化接口，由基础设施层（store 包）实现。
// 单写者口径：只有训练方写入，服务方只读最新版本。
type Store interface {
	// Save 持久化一个训练完成的模型。
	Save(ctx context.Context, m *FactorModel) error

	// LoadLatest 读取最近一次持久化的模型；尚无模型返回 MODEL_UNAVAILABLE。
	LoadLatest(ctx context.Context) (*FactorModel, error)
}

// ErrModelUnavailable 表示尚无可用的已训练模型，调用方应走兜底路径。
var ErrModelUnavailable = core.NewDomainError(core.ModuleModel, core.ErrorCodeModelUnavailable,
	"model: no trained model available")
