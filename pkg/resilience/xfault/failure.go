package xfault

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind 标记联合的判别值。
type Kind int

const (
	// KindOpaque 不透明值
	KindOpaque Kind = iota
	// KindStatus 携带状态码
	KindStatus
	// KindError 普通 error
	KindError
)

// String 返回 Kind 的可读名称。
func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindError:
		return "error"
	default:
		return "opaque"
	}
}

// Failure 失败值的标记联合，只有本包定义的三个变体。
type Failure interface {
	Kind() Kind
	failure()
}

// StatusFailure 携带 HTTP 等价状态码的失败。
type StatusFailure struct {
	Code int
	Err  error // 原始错误，非 error 的 StatusCoder 值时为 nil
}

// Kind 返回 KindStatus。
func (StatusFailure) Kind() Kind { return KindStatus }
func (StatusFailure) failure()   {}

// ErrorFailure 普通 error 失败。
type ErrorFailure struct {
	Err error
}

// Kind 返回 KindError。
func (ErrorFailure) Kind() Kind { return KindError }
func (ErrorFailure) failure()   {}

// OpaqueFailure 无法识别结构的失败值。
type OpaqueFailure struct {
	Value any
}

// Kind 返回 KindOpaque。
func (OpaqueFailure) Kind() Kind { return KindOpaque }
func (OpaqueFailure) failure()   {}

// grpcHTTPStatus gRPC 状态码到 HTTP 等价状态码的映射。
// 不在表中的状态码（如 DeadlineExceeded、Canceled）按普通 error 处理。
var grpcHTTPStatus = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.FailedPrecondition: http.StatusBadRequest,
	codes.OutOfRange:         http.StatusBadRequest,
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.NotFound:           http.StatusNotFound,
	codes.AlreadyExists:      http.StatusConflict,
	codes.Aborted:            http.StatusConflict,
	codes.ResourceExhausted:  http.StatusTooManyRequests,
	codes.Internal:           http.StatusInternalServerError,
	codes.DataLoss:           http.StatusInternalServerError,
	codes.Unimplemented:      http.StatusNotImplemented,
	codes.Unavailable:        http.StatusServiceUnavailable,
}

// FromError 将 error 转换为 Failure。
//
// 规则：
//   - nil → OpaqueFailure
//   - 错误链中存在 StatusCoder → StatusFailure
//   - 可映射的 gRPC 状态 → StatusFailure
//   - 携带非 error 值的 *PanicError → OpaqueFailure
//   - 其他 → ErrorFailure
//
// err 的 Error() 方法 panic 时返回 OpaqueFailure。
func FromError(err error) (f Failure) {
	if err == nil {
		return OpaqueFailure{}
	}
	defer func() {
		if recover() != nil {
			f = OpaqueFailure{Value: err}
		}
	}()

	var sc StatusCoder
	if errors.As(err, &sc) {
		return StatusFailure{Code: sc.StatusCode(), Err: err}
	}

	if s, ok := status.FromError(err); ok {
		if code, mapped := grpcHTTPStatus[s.Code()]; mapped {
			return StatusFailure{Code: code, Err: err}
		}
	}

	var pe *PanicError
	if errors.As(err, &pe) && pe.Unwrap() == nil {
		return OpaqueFailure{Value: pe.Value}
	}

	return ErrorFailure{Err: err}
}

// FromValue 将任意失败值转换为 Failure。
// error 值委托给 FromError；非 error 的 StatusCoder 转为 StatusFailure；
// 其余（包括字符串）一律为 OpaqueFailure。
func FromValue(v any) Failure {
	switch x := v.(type) {
	case nil:
		return OpaqueFailure{}
	case Failure:
		return x
	case error:
		return FromError(x)
	case StatusCoder:
		return StatusFailure{Code: x.StatusCode()}
	default:
		return OpaqueFailure{Value: v}
	}
}
