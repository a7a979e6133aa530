package xloadable

import "errors"

var (
	// ErrNilContext 传入的 context 为 nil
	ErrNilContext = errors.New("xloadable: nil context")
	// ErrNilFunc 传入的加载函数为 nil
	ErrNilFunc = errors.New("xloadable: nil load func")
	// ErrInvalidSize Registry 容量必须为正数
	ErrInvalidSize = errors.New("xloadable: registry size must be positive")
)
