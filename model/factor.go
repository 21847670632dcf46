// Package model 实现隐因子模型：ALS 离线训练、冷启动用户的在线闭式解、
// 稠密打分，以及作为降级备选的流行度模型。
package model

import (
	"bytes"
	"encoding/gob"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Options 是隐因子模型的训练超参数。
type Options struct {
	Factors    int     // 因子维度 d
	Iterations int     // ALS 轮数
	Lambda     float64 // 岭回归正则项
	Alpha      float64 // 置信度缩放
	Confidence float64 // 在线求解时观测物品的置信度提升常数
}

// DefaultOptions 返回默认超参数。
func DefaultOptions() Options {
	return Options{
		Factors:    20,
		Iterations: 5,
		Lambda:     0.05,
		Alpha:      40,
		Confidence: 10,
	}
}

// FactorModel 持有用户/物品两个稠密因子矩阵。
//
// 不可变性约定：模型一经发布即只读，任何读者不得原地修改；重训产出新模型、
// 整体替换旧模型（读者要么看到旧模型、要么看到新模型，不会看到新旧混合）。
//
// 行索引约定：稠密 id 从 1 起，矩阵行号 = id - 1。
type FactorModel struct {
	users *mat.Dense // nUsers × d；可能为 nil（空训练集）
	items *mat.Dense // nItems × d
	opts  Options
}

// NewFactorModel 由因子矩阵构造模型。任一矩阵可为 nil，表示该维度为空。
func NewFactorModel(users, items *mat.Dense, opts Options) *FactorModel {
	return &FactorModel{users: users, items: items, opts: opts}
}

// Opts 返回训练超参数。
func (m *FactorModel) Opts() Options { return m.opts }

// NumUsers 返回用户因子行数。
func (m *FactorModel) NumUsers() int {
	if m == nil || m.users == nil {
		return 0
	}
	r, _ := m.users.Dims()
	return r
}

// NumItems 返回物品因子行数。
func (m *FactorModel) NumItems() int {
	if m == nil || m.items == nil {
		return 0
	}
	r, _ := m.items.Dims()
	return r
}

// Factors 返回因子维度 d。
func (m *FactorModel) Factors() int {
	if m == nil {
		return 0
	}
	if m.items != nil {
		_, c := m.items.Dims()
		return c
	}
	if m.users != nil {
		_, c := m.users.Dims()
		return c
	}
	return 0
}

// Empty 判断模型是否不可用（任一维度为空即视为"无模型"，调用方应走降级路径）。
func (m *FactorModel) Empty() bool {
	return m.NumUsers() == 0 || m.NumItems() == 0
}

// UserVector 返回稠密 id 对应用户的因子向量副本；id 超出训练行范围返回 false
//（即"新用户"，应尝试在线求解）。
func (m *FactorModel) UserVector(id int64) ([]float64, bool) {
	row := int(id) - 1
	if row < 0 || row >= m.NumUsers() {
		return nil, false
	}
	out := make([]float64, m.Factors())
	mat.Row(out, row, m.users)
	return out, true
}

// ItemVector 返回稠密 id 对应物品的因子向量副本。
func (m *FactorModel) ItemVector(id int64) ([]float64, bool) {
	row := int(id) - 1
	if row < 0 || row >= m.NumItems() {
		return nil, false
	}
	out := make([]float64, m.Factors())
	mat.Row(out, row, m.items)
	return out, true
}

// itemMatrix 暴露物品因子矩阵给包内打分/求解使用；调用方不得修改。
func (m *FactorModel) itemMatrix() *mat.Dense { return m.items }

// Finite 检查两个矩阵中是否不含 NaN/Inf。训练完成后必须校验，
// 含坏值的模型绝不能发布。
func (m *FactorModel) Finite() bool {
	for _, d := range []*mat.Dense{m.users, m.items} {
		if d == nil {
			continue
		}
		raw := d.RawMatrix()
		for _, v := range raw.Data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// factorModelWire 是 gob 持久化的线上结构（矩阵按行主序展开）。
type factorModelWire struct {
	NumUsers, NumItems, Factors int
	Users, Items                []float64
	Opts                        Options
}

// MarshalBinary 以 gob 编码模型，供 ModelStore 持久化。
func (m *FactorModel) MarshalBinary() ([]byte, error) {
	w := factorModelWire{
		NumUsers: m.NumUsers(),
		NumItems: m.NumItems(),
		Factors:  m.Factors(),
		Opts:     m.opts,
	}
	if m.users != nil {
		w.Users = append([]float64(nil), m.users.RawMatrix().Data...)
	}
	if m.items != nil {
		w.Items = append([]float64(nil), m.items.RawMatrix().Data...)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary 从 gob 编码恢复模型。
func (m *FactorModel) UnmarshalBinary(data []byte) error {
	var w factorModelWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}
	m.opts = w.Opts
	m.users, m.items = nil, nil
	if w.NumUsers > 0 && w.Factors > 0 {
		m.users = mat.NewDense(w.NumUsers, w.Factors, w.Users)
	}
	if w.NumItems > 0 && w.Factors > 0 {
		m.items = mat.NewDense(w.NumItems, w.Factors, w.Items)
	}
	return nil
}
