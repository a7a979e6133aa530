package xfault

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"regexp"
	"syscall"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	timeoutPattern = regexp.MustCompile(`(?i)timeout`)
	networkPattern = regexp.MustCompile(`(?i)failed to fetch|network\s?error`)
)

// Classify 将 Failure 归入一个类别。全函数，永不 panic。
//
// 规则（按优先级）：
//  1. StatusFailure：>=500 → SERVER_ERROR；429 → RATE_LIMIT；>=400 → CLIENT_ERROR；其余 → UNKNOWN
//  2. ErrorFailure：超时 → TIMEOUT；连接失败 → NETWORK；其余 → LOCAL_FAULT
//  3. 其他 → UNKNOWN
func Classify(f Failure) (category Category) {
	defer func() {
		// Error() 由外部实现，可能 panic
		if recover() != nil {
			category = CategoryUnknown
		}
	}()

	switch v := f.(type) {
	case StatusFailure:
		return classifyStatus(v.Code)
	case ErrorFailure:
		if v.Err == nil {
			return CategoryUnknown
		}
		return classifyError(v.Err)
	default:
		return CategoryUnknown
	}
}

// ClassifyError 等价于 Classify(FromError(err))。
func ClassifyError(err error) Category {
	return Classify(FromError(err))
}

// ClassifyValue 等价于 Classify(FromValue(v))。
func ClassifyValue(v any) Category {
	return Classify(FromValue(v))
}

func classifyStatus(code int) Category {
	switch {
	case code >= 500:
		return CategoryServerError
	case code == 429:
		return CategoryRateLimit
	case code >= 400:
		return CategoryClientError
	default:
		return CategoryUnknown
	}
}

func classifyError(err error) Category {
	if isTimeout(err) {
		return CategoryTimeout
	}
	if isNetwork(err) {
		return CategoryNetwork
	}
	return CategoryLocalFault
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.DeadlineExceeded {
		return true
	}
	return timeoutPattern.MatchString(err.Error())
}

func isNetwork(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return networkPattern.MatchString(err.Error())
}
