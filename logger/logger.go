package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	l    *zap.SugaredLogger
	once sync.Once
)

// Init builds the global structured logger.
func Init() {
	once.Do(func() {
		zl, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		l = zl.Sugar()
	})
}

// L returns the global logger instance.
func L() *zap.SugaredLogger {
	if l == nil {
		Init()
	}
	return l
}

func Info(msg string, kv ...any)  { L().Infow(msg, kv...) }
func Warn(msg string, kv ...any)  { L().Warnw(msg, kv...) }
func Error(msg string, kv ...any) { L().Errorw(msg, kv...) }
func Debug(msg string, kv ...any) { L().Debugw(msg, kv...) }
