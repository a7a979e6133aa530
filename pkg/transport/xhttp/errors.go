package xhttp

import "errors"

var (
	// ErrNilClient 客户端为 nil。
	ErrNilClient = errors.New("xhttp: nil client")

	// ErrNilRequest 请求为 nil。
	ErrNilRequest = errors.New("xhttp: nil request")

	// ErrResponseTooLarge 响应体超过上限。
	ErrResponseTooLarge = errors.New("xhttp: response too large")
)
