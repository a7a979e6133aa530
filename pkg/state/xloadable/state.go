package xloadable

import (
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/xloadkit/pkg/observability/xreport"
)

// Status 加载状态
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

var statusNames = [...]string{
	StatusIdle:    "idle",
	StatusLoading: "loading",
	StatusReady:   "ready",
	StatusError:   "error",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText 实现 encoding.TextMarshaler。
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler。
func (s *Status) UnmarshalText(data []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(data)))
	for i, n := range statusNames {
		if n == name {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("xloadable: unknown status %q", data)
}

// State Controller 的状态快照。
//
// 零值 time.Time 表示未设置。各状态下的字段约束：
//   - idle：无数据、无错误
//   - loading：StartedAt 已设置，FinishedAt 未设置，无错误
//   - ready：有数据、无错误
//   - error：Err 非 nil，可能保留上一次的数据
type State[T any] struct {
	Status     Status
	Data       T
	HasData    bool
	Err        *xreport.ErrorInfo
	StartedAt  time.Time
	FinishedAt time.Time
}

// Elapsed 返回从 StartedAt 到 FinishedAt 的耗时，任一未设置时返回 0。
func (s State[T]) Elapsed() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func idleState[T any]() State[T] {
	return State[T]{Status: StatusIdle}
}

func readyState[T any](data T) State[T] {
	return State[T]{Status: StatusReady, Data: data, HasData: true}
}
