package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型，提供错误代码（Code）与模块（Module）
//   - 通过 IsXXX 检查函数区分处理路径，而不是字符串匹配
//
// 错误分层（见各代码常量）：
//   - NOT_FOUND / INVALID_INPUT：透出给服务调用方
//   - INSUFFICIENT_SIGNAL：冷启动信号不足，服务内部切换备选模型，不透出
//   - MODEL_UNAVAILABLE / TIMEOUT：触发兜底结果，不透出
//   - NUMERIC_FAILURE：训练中的数值错误，中止本次训练，绝不发布坏模型
type DomainError struct {
	Module  string // 模块名称（如 "model", "cache", "service"）
	Code    string // 错误代码（如 "NOT_FOUND"）
	Message string // 错误消息
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误。
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message}
}

// GetDomainError 获取 DomainError（支持 wrap 链），如果不是则返回 nil。
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

// 错误代码常量
const (
	ErrorCodeNotFound           = "NOT_FOUND"           // 用户/物品不存在
	ErrorCodeInvalidInput       = "INVALID_INPUT"       // 输入无效（如 n <= 0）
	ErrorCodeInsufficientSignal = "INSUFFICIENT_SIGNAL" // 冷启动用户持有物品不足
	ErrorCodeModelUnavailable   = "MODEL_UNAVAILABLE"   // 尚无已训练模型
	ErrorCodeTimeout            = "TIMEOUT"             // 超出响应时限
	ErrorCodeNumericFailure     = "NUMERIC_FAILURE"     // 奇异矩阵 / NaN / Inf
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 内部错误
)

// 模块名称常量
const (
	ModuleModel       = "model"
	ModuleCache       = "cache"
	ModuleStore       = "store"
	ModulePipeline    = "pipeline"
	ModuleContingency = "contingency"
	ModuleService     = "service"
)

func hasCode(err error, code string) bool {
	de := GetDomainError(err)
	return de != nil && de.Code == code
}

// IsNotFound 检查错误是否为 NOT_FOUND。
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT。
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsInsufficientSignal 检查错误是否为 INSUFFICIENT_SIGNAL。
func IsInsufficientSignal(err error) bool { return hasCode(err, ErrorCodeInsufficientSignal) }

// IsModelUnavailable 检查错误是否为 MODEL_UNAVAILABLE。
func IsModelUnavailable(err error) bool { return hasCode(err, ErrorCodeModelUnavailable) }

// IsTimeout 检查错误是否为 TIMEOUT。
func IsTimeout(err error) bool { return hasCode(err, ErrorCodeTimeout) }

// IsNumericFailure 检查错误是否为 NUMERIC_FAILURE。
func IsNumericFailure(err error) bool { return hasCode(err, ErrorCodeNumericFailure) }
