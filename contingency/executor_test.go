package contingency

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/model"
)

func newTestExecutor(timeout time.Duration) *Executor {
	return NewExecutor(2, timeout, zerolog.Nop())
}

func TestExecutor_FastTaskPassesThrough(t *testing.T) {
	e := newTestExecutor(time.Second)
	defer e.Close()

	want := []*core.Item{core.NewItem(1), core.NewItem(2)}
	got, fromFallback := e.Run(context.Background(), 2, func(context.Context) ([]*core.Item, error) {
		return want, nil
	}, &StaticFallback{IDs: []int64{9}})

	assert.False(t, fromFallback)
	assert.Equal(t, want, got)
}

func TestExecutor_TimeoutServesFallback(t *testing.T) {
	const timeout = 50 * time.Millisecond
	e := newTestExecutor(timeout)
	defer e.Close()

	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	got, fromFallback := e.Run(context.Background(), 3, func(ctx context.Context) ([]*core.Item, error) {
		select {
		case <-release: // 挂住直到测试结束
		case <-ctx.Done():
		}
		return nil, ctx.Err()
	}, &StaticFallback{IDs: []int64{7, 8, 9, 10}})
	elapsed := time.Since(start)

	assert.True(t, fromFallback)
	require.Len(t, got, 3, "fallback must honor the requested count")
	assert.Equal(t, int64(7), got[0].ID)
	assert.Less(t, elapsed, timeout+100*time.Millisecond,
		"caller must be unblocked shortly after the deadline")
}

func TestExecutor_TaskErrorServesFallback(t *testing.T) {
	e := newTestExecutor(time.Second)
	defer e.Close()

	got, fromFallback := e.Run(context.Background(), 1, func(context.Context) ([]*core.Item, error) {
		return nil, model.ErrModelUnavailable
	}, &StaticFallback{IDs: []int64{5}})

	assert.True(t, fromFallback)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].ID)
}

func TestExecutor_TaskPanicServesFallback(t *testing.T) {
	e := newTestExecutor(time.Second)
	defer e.Close()

	got, fromFallback := e.Run(context.Background(), 2, func(context.Context) ([]*core.Item, error) {
		panic("node blew up")
	}, &StaticFallback{IDs: []int64{1, 2}})

	assert.True(t, fromFallback, "panic must degrade to fallback, not crash")
	assert.Len(t, got, 2)

	// 工作协程仍然存活，后续请求照常服务
	items, fromFallback := e.Run(context.Background(), 1, func(context.Context) ([]*core.Item, error) {
		return []*core.Item{core.NewItem(3)}, nil
	}, &StaticFallback{IDs: []int64{1}})
	assert.False(t, fromFallback)
	require.Len(t, items, 1)
}

func TestStaticFallback_Provide(t *testing.T) {
	fb := &StaticFallback{IDs: []int64{4, 2, 7}}

	items := fb.Provide(2)
	require.Len(t, items, 2)
	assert.Equal(t, int64(4), items[0].ID)
	assert.Equal(t, int64(2), items[1].ID)

	lbl, ok := items[0].Labels["source"]
	require.True(t, ok)
	assert.Equal(t, "fallback", lbl.Value)

	// 请求数超过清单容量时给出全部可用项
	assert.Len(t, fb.Provide(10), 3)
}
