package restir

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/df07/go-restir/pkg/core"
)

// DefaultLogger writes directly to stdout via fmt, for CLI and test use
// where a structured logger would be overkill.
type DefaultLogger struct{}

func (DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

// ZapLogger adapts a zap.SugaredLogger to core.Logger for production
// use, where structured fields and log levels matter.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps z as a core.Logger.
func NewZapLogger(z *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: z.Sugar()}
}

func (l *ZapLogger) Printf(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

var _ core.Logger = DefaultLogger{}
var _ core.Logger = (*ZapLogger)(nil)
