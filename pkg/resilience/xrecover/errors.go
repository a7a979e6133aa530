package xrecover

import "errors"

var (
	// ErrNilContext ctx 为 nil
	ErrNilContext = errors.New("xrecover: nil context")

	// ErrNilOperation 操作函数为 nil
	ErrNilOperation = errors.New("xrecover: nil operation")

	// ErrInvalidRule 策略规则非法
	ErrInvalidRule = errors.New("xrecover: invalid rule")
)
