// Package logger 把对局日志写到本地文件。终端被 TUI 占用，日志不能打到 stdout。
package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"
)

const (
	logDirName  = ".among-the-stars"
	logFileName = "debug.log"
	maxLogSize  = 10 * 1024 * 1024
)

// 日志级别前缀
const (
	levelInfo  = "INFO"
	levelWarn  = "WARN"
	levelError = "ERROR"
	levelPanic = "PANIC"
)

var (
	logFile *os.File
	logPath string
)

// Init 在 dir 下打开 debug.log，dir 为空时使用 ~/.among-the-stars。
// 已有文件超过 maxLogSize 时先改名为 debug.log.<unix>，再新建。
func Init(dir string) error {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("logger: resolve home: %w", err)
		}
		dir = filepath.Join(home, logDirName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("logger: create %s: %w", dir, err)
	}

	path := filepath.Join(dir, logFileName)
	if err := rotate(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("logger: open %s: %w", path, err)
	}

	Close()
	logFile, logPath = f, path
	log.SetOutput(f)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)

	LogInfo("📝 log file: %s", path)
	return nil
}

func rotate(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.Size() <= maxLogSize {
		return nil
	}
	backup := fmt.Sprintf("%s.%d", path, time.Now().Unix())
	if err := os.Rename(path, backup); err != nil {
		return fmt.Errorf("logger: rotate %s: %w", path, err)
	}
	return nil
}

// Close 关闭日志文件，之后的日志回到 log 包当前的输出
func Close() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func write(level, format string, args ...any) {
	// 跳过 write 与 LogXxx 两层，Lshortfile 指向真正的调用方
	_ = log.Output(3, "["+level+"] "+fmt.Sprintf(format, args...))
}

// LogInfo 正常流程，包括被拒绝的本地操作
func LogInfo(format string, args ...any) { write(levelInfo, format, args...) }

// LogWarn 远端事件与本地状态不一致（未知任务/玩家/面板）
func LogWarn(format string, args ...any) { write(levelWarn, format, args...) }

// LogError 音效加载、连接等外部失败
func LogError(format string, args ...any) { write(levelError, format, args...) }

// LogPanic 记录 recover 到的 panic 和调用栈
func LogPanic(r any) { write(levelPanic, "%v\n%s", r, debug.Stack()) }

// GetLogPath 当前日志文件路径
func GetLogPath() string {
	return logPath
}
