package xretry

import "errors"

// 参数校验错误
var (
	// ErrNilContext 传入的 context 为 nil
	ErrNilContext = errors.New("xretry: context cannot be nil")

	// ErrNilFunc 传入的操作函数为 nil
	ErrNilFunc = errors.New("xretry: function cannot be nil")

	// ErrInvalidAttempts 尝试次数小于 1
	ErrInvalidAttempts = errors.New("xretry: attempts must be at least 1")
)
