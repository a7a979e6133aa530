package xmetrics

import "errors"

var (
	// ErrCreateCounter 创建 Counter 失败
	ErrCreateCounter = errors.New("xmetrics: create counter failed")
	// ErrCreateHistogram 创建 Histogram 失败
	ErrCreateHistogram = errors.New("xmetrics: create histogram failed")
)
