package xreport

import "errors"

var (
	// ErrNilClient Redis 客户端或指标计数器为 nil
	ErrNilClient = errors.New("xreport: nil client")

	// ErrEmptyKey Redis key 为空
	ErrEmptyKey = errors.New("xreport: empty redis key")

	// ErrNilInfo 报告内容为 nil
	ErrNilInfo = errors.New("xreport: nil error info")
)
