package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 可选携带底层原因（Err），支持 errors.Is / errors.As
//
// 使用场景：
//   - 查询：NOT_FOUND, UNTRAINED
//   - 训练：TRAINING_FAILURE, INVALID_INPUT
//   - 内部一致性：INVARIANT_VIOLATION
//   - Store：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "UNTRAINED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "engine", "store", "recall"）
	Err     error  // 底层原因（可为空）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// IsDomainError 检查错误链上是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链上的第一个 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建携带底层原因的领域错误
func WrapDomainError(module, code string, err error, format string, args ...any) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound           = "NOT_FOUND"           // 标识符不在对应映射中
	ErrorCodeNotSupported       = "NOT_SUPPORTED"       // 操作不支持
	ErrorCodeUnavailable        = "UNAVAILABLE"         // 服务不可用
	ErrorCodeInvalidInput       = "INVALID_INPUT"       // 输入无效（加载边界校验失败）
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 内部错误
	ErrorCodeUntrained          = "UNTRAINED"           // 模型尚未完成首次训练
	ErrorCodeInvariantViolation = "INVARIANT_VIOLATION" // 内部不变量被破坏（bug）
	ErrorCodeTrainingFailure    = "TRAINING_FAILURE"    // 训练失败，上一代模型保持生效
)

// 模块名称常量
const (
	ModuleStore  = "store"  // 存储模块
	ModuleSource = "source" // 快照数据源
	ModuleRecall = "recall" // 模型构建（索引/内容/协同/矩阵分解）
	ModuleEngine = "engine" // 推荐引擎
	ModuleHTTP   = "http"   // HTTP 接口
)

// ErrUntrained 在首次训练完成前的任何查询都会返回
var ErrUntrained = NewDomainError(ModuleEngine, ErrorCodeUntrained, "engine: model has not been trained")

// NotFoundError 构造 NOT_FOUND 错误。
func NotFoundError(module, kind, id string) *DomainError {
	return NewDomainError(module, ErrorCodeNotFound, fmt.Sprintf("%s: %s %q not found", module, kind, id))
}

// InvalidInputError 构造 INVALID_INPUT 错误。
func InvalidInputError(module string, format string, args ...any) *DomainError {
	return NewDomainError(module, ErrorCodeInvalidInput, module+": "+fmt.Sprintf(format, args...))
}

// 通用错误检查函数

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsUntrained 检查错误是否为 UNTRAINED
func IsUntrained(err error) bool { return hasCode(err, ErrorCodeUntrained) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsInvariantViolation 检查错误是否为 INVARIANT_VIOLATION
func IsInvariantViolation(err error) bool { return hasCode(err, ErrorCodeInvariantViolation) }

// IsTrainingFailure 检查错误是否为 TRAINING_FAILURE
func IsTrainingFailure(err error) bool { return hasCode(err, ErrorCodeTrainingFailure) }
