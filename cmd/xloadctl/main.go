// xloadctl 用 xloadkit 的恢复策略和加载状态机探测 HTTP 资源。
//
// 用法:
//
//	xloadctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      配置文件（YAML/JSON），缺省使用内置默认值
//	    --log-level   覆盖 log.level
//	    --log-format  覆盖 log.format（text|json）
//	    --log-file    覆盖 log.file，写入轮转文件
//	-t, --timeout     单次 HTTP 请求超时 (默认: 10s)
//	    --stats       退出前打印操作与失败计数
//
// 命令:
//
//	probe <url>...    每个 URL 一个加载控制器，并发 LoadWithRetry，打印状态变化
//	recover <url>     按策略表执行带恢复的请求，打印结果或 fallback
//	policy            打印各分类在第 1..N 次失败时的决策
//	errors            查看 Redis 中最近的错误报告
//	watch <url>...    按 watch.schedule 周期探测，配置文件变更时热更新策略表
//
// 退出码:
//
//	0: 成功
//	1: 执行失败（probe/recover 最终失败、Redis 不可用等）
//	2: 参数或配置错误
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xloadkit/pkg/transport/xhttp"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// createApp 创建 CLI 应用，输出写入 out 和 errOut。
func createApp(out, errOut io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xloadctl",
		Usage:     "资源加载与失败恢复的命令行工具",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（YAML/JSON）",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别（debug|info|warn|error）",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式（text|json）",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志文件，设置后按配置轮转",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "单次 HTTP 请求超时",
				Value:   xhttp.DefaultTimeout,
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "退出前打印操作与失败计数",
			},
		},
		Commands: []*cli.Command{
			createProbeCommand(),
			createRecoverCommand(),
			createPolicyCommand(),
			createErrorsCommand(),
			createWatchCommand(),
		},
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(errOut, err)
			}
		},
	}
}

func run(args []string, out, errOut io.Writer) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	return runContext(ctx, args, out, errOut)
}

func runContext(ctx context.Context, args []string, out, errOut io.Writer) int {
	if err := createApp(out, errOut).Run(ctx, args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(errOut, "参数错误: %v\n", usageErr)
			return 2
		}
		if isCLIUsageError(err) {
			return 2
		}
		fmt.Fprintf(errOut, "错误: %v\n", err)
		return 1
	}
	return 0
}

// setupSignalHandler 第一次信号取消 context，第二次强制退出。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}

// shutdownTimeout 收尾（刷新指标、关闭 Redis）的最长时间。
const shutdownTimeout = 5 * time.Second
