package xrotate

import "io"

var _ io.WriteCloser = (Rotator)(nil)

// Rotator 可轮转的日志输出，实现必须并发安全。
//
// Close 之后 Write 和 Rotate 返回 [ErrClosed]，重复 Close 也返回 [ErrClosed]。
type Rotator interface {
	Write(p []byte) (n int, err error)
	Close() error

	// Rotate 关闭当前文件并改名为备份，随后写入新文件。
	Rotate() error
}
