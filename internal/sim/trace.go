package sim

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"rvtrap/internal/riscv"
)

// traceLogger logs trap entries at debug level, at most once per interval.
// A timer-driven guest traps hundreds of times a simulated second.
type traceLogger struct {
	log     *logrus.Entry
	limit   *rate.Limiter
	dropped int
}

func newTraceLogger(log *logrus.Entry, every time.Duration) *traceLogger {
	limit := rate.NewLimiter(rate.Inf, 1)
	if every > 0 {
		limit = rate.NewLimiter(rate.Every(every), 1)
	}
	return &traceLogger{log: log, limit: limit}
}

func (t *traceLogger) trap(cause riscv.Cause, pc, stval uint64) {
	if !t.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	if !t.limit.Allow() {
		t.dropped++
		return
	}
	t.log.WithFields(logrus.Fields{
		"cause":   cause.String(),
		"pc":      fmt.Sprintf("%#x", pc),
		"stval":   fmt.Sprintf("%#x", stval),
		"dropped": t.dropped,
	}).Debug("trap")
	t.dropped = 0
}
