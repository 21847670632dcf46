// Package contingency 实现响应时限保障：把"计算一次推荐"提交到有界工作池，
// 与截止时间赛跑，超时或失败立刻返回静态兜底结果。
package contingency

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/recserve/core"
)

// DefaultTimeout 是默认响应时限。
const DefaultTimeout = 150 * time.Millisecond

// Task 是被时限保护的计算单元。实现应照看 ctx 取消信号；
// 超时后任务可能继续在后台跑完，但其结果会被丢弃（best-effort 取消）。
type Task func(ctx context.Context) ([]*core.Item, error)

type job struct {
	ctx  context.Context
	task Task
	done chan result
}

type result struct {
	items []*core.Item
	err   error
}

// Executor 用固定大小的工作池约束尾延迟：并发请求数超过池容量时，
// 排不上队的请求直接在截止时间走兜底，而不是无界堆积。
//
// 调用方阻塞至多 timeout；超时后无论任务是否完成都立即返回。
type Executor struct {
	timeout time.Duration
	queue   chan job
	log     zerolog.Logger
}

// NewExecutor 创建执行器并启动 workers 个常驻工作协程。
// workers <= 0 取 2；timeout <= 0 取 DefaultTimeout。
func NewExecutor(workers int, timeout time.Duration, log zerolog.Logger) *Executor {
	if workers <= 0 {
		workers = 2
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	e := &Executor{
		timeout: timeout,
		queue:   make(chan job),
		log:     log,
	}
	for i := 0; i < workers; i++ {
		go e.worker()
	}
	return e
}

func (e *Executor) worker() {
	for j := range e.queue {
		items, err := runGuarded(j.ctx, j.task)
		j.done <- result{items: items, err: err}
	}
}

// runGuarded 执行任务并把 panic 转成错误：链路内的任何失败都只能
// 表现为"本次走兜底"，绝不能带崩工作协程。
func runGuarded(ctx context.Context, task Task) (items []*core.Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.NewDomainError(core.ModuleContingency, core.ErrorCodeInternalError,
				fmt.Sprintf("contingency: task panic: %v", r))
		}
	}()
	return task(ctx)
}

// Run 在响应时限内执行任务；超时、排队失败或任务出错时返回兜底结果。
// 返回值第二项表示结果是否来自兜底。
//
// 截止到达时向在飞任务发送取消信号（ctx），结果被丢弃；
// 任务不保证立即停止，但其占用的资源最终会被回收。
func (e *Executor) Run(ctx context.Context, n int, task Task, fb Fallback) ([]*core.Item, bool) {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)

	j := job{ctx: cctx, task: task, done: make(chan result, 1)}
	select {
	case e.queue <- j:
	case <-cctx.Done():
		cancel()
		e.log.Debug().Msg("contingency: worker pool saturated, serving fallback")
		return fb.Provide(n), true
	}

	select {
	case r := <-j.done:
		cancel()
		if r.err != nil {
			if core.IsModelUnavailable(r.err) {
				e.log.Warn().Err(r.err).Msg("contingency: model unavailable, serving fallback")
			} else {
				e.log.Debug().Err(r.err).Msg("contingency: task failed, serving fallback")
			}
			return fb.Provide(n), true
		}
		return r.items, false
	case <-cctx.Done():
		cancel()
		e.log.Debug().Dur("timeout", e.timeout).Msg("contingency: deadline exceeded, serving fallback")
		return fb.Provide(n), true
	}
}

// Timeout 返回配置的响应时限。
func (e *Executor) Timeout() time.Duration { return e.timeout }

// Close 关闭工作池。关闭后不得再调用 Run。
func (e *Executor) Close() {
	close(e.queue)
}
