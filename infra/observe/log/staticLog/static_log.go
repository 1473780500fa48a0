// Package staticLog 全局日志，logrus + lumberjack 滚动文件
package staticLog

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Path       string // 为空则输出到 stderr
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var (
	Log = newDefault()

	mu     sync.Mutex
	closer io.Closer
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Init 按配置重新设置输出和级别，可重复调用
func Init(opt Options) error {
	level := logrus.InfoLevel
	if opt.Level != "" {
		lv, err := logrus.ParseLevel(opt.Level)
		if err != nil {
			return err
		}
		level = lv
	}

	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		closer.Close()
		closer = nil
	}

	if opt.Path == "" {
		Log.SetOutput(os.Stderr)
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		lj := &lumberjack.Logger{
			Filename:   opt.Path,
			MaxSize:    opt.MaxSizeMB,
			MaxBackups: opt.MaxBackups,
			MaxAge:     opt.MaxAgeDays,
			Compress:   opt.Compress,
		}
		Log.SetOutput(lj)
		Log.SetFormatter(&logrus.JSONFormatter{})
		closer = lj
	}
	Log.SetLevel(level)
	return nil
}

// Close 关闭滚动文件
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}
