package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "empty existing takes incoming",
			incoming: Label{Value: "model", Source: "score"},
			want:     Label{Value: "model", Source: "score"},
		},
		{
			name:     "empty incoming keeps existing",
			existing: Label{Value: "model", Source: "score"},
			want:     Label{Value: "model", Source: "score"},
		},
		{
			name:     "both set accumulate history",
			existing: Label{Value: "model", Source: "score"},
			incoming: Label{Value: "demoted", Source: "rerank"},
			want:     Label{Value: "model|demoted", Source: "score,rerank"},
		},
		{
			name:     "missing incoming source keeps existing source",
			existing: Label{Value: "a", Source: "score"},
			incoming: Label{Value: "b"},
			want:     Label{Value: "a|b", Source: "score"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeLabel(tt.existing, tt.incoming))
		})
	}
}

func TestRecommendContext_ConcurrentLabels(t *testing.T) {
	// 超时后被放弃的任务可能仍在后台写标签，与调用方并发。
	// -race 下本测试守住 PutLabel / GetLabel 的并发安全。
	rctx := &RecommendContext{N: 10}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rctx.PutLabel(fmt.Sprintf("key-%d", i%2), Label{Value: "v", Source: "test"})
				rctx.GetLabel("key-0")
			}
		}(i)
	}
	wg.Wait()

	_, ok := rctx.GetLabel("key-0")
	assert.True(t, ok)
	_, ok = rctx.GetLabel("key-1")
	assert.True(t, ok)
}

func TestItem_PutLabel(t *testing.T) {
	it := NewItem(1)
	it.PutLabel("source", Label{Value: "model", Source: "score"})
	it.PutLabel("source", Label{Value: "fallback", Source: "contingency"})

	lbl := it.Labels["source"]
	assert.Equal(t, "model|fallback", lbl.Value)
	assert.Equal(t, "score,contingency", lbl.Source)
}
