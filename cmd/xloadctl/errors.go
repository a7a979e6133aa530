package main

import (
	"fmt"
	"strings"
)

// exitError 命令已完成输出，只需设置退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 参数或配置错误，退出码 2。
type usageError struct {
	msg string
	err error
}

func (e *usageError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *usageError) Unwrap() error { return e.err }

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// cliUsageMarkers urfave/cli 参数错误的消息片段。
var cliUsageMarkers = []string{
	"flag provided but not defined",
	"flag needs an argument",
	"invalid value",
	"invalid boolean",
	"No help topic for",
	"Required flag",
}

// isCLIUsageError 判断 err 是否来自 urfave/cli 的参数解析。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, m := range cliUsageMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
