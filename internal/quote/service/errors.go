package service

import "errors"

// 错误类别（稳定的机器可读kind，处理器据此映射HTTP码）
const (
	KindNotFound             = "not_found"
	KindForbidden            = "forbidden"
	KindInvalidTransition    = "invalid_transition"
	KindAlreadyDecided       = "already_decided"
	KindInvalidKey           = "invalid_key"
	KindMalformedEnvelope    = "malformed_envelope"
	KindEmptyComment         = "empty_comment"
	KindNoApproversAvailable = "no_approvers_available"
)

// WorkflowError 引擎业务错误。所有引擎操作要么完整落库要么
// 一点不写，错误只返回不吞掉。
type WorkflowError struct {
	Kind    string
	Message string
}

func (e *WorkflowError) Error() string {
	return e.Message
}

func newError(kind, message string) *WorkflowError {
	return &WorkflowError{Kind: kind, Message: message}
}

// ErrKind 提取错误类别，非业务错误返回空串
func ErrKind(err error) string {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}
