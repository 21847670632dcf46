package core

// Label 是推荐链路中的可解释标记：记录候选在各阶段被如何处理（来源、屏蔽原因等）。
// Value 与 Source 的语义由调用方自定义；核心只提供标准化的合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // score / filter / rank / rerank / fallback ...
}

// MergeLabel 合并同名 Label，遵循"保留历史、可追踪"的默认策略：
// Value 以 '|' 累积，Source 以 ',' 累积。
func MergeLabel(existing, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
