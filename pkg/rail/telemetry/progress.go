package telemetry

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ib-77/ringrail/pkg/rail/core"
)

// ProgressLogger returns a progress callback that logs each stage's running
// total at most once per interval. The first item of every stage is logged.
func ProgressLogger(log *zap.Logger, interval time.Duration) core.ProgressFunc {
	var limiters sync.Map // stage name -> *rate.Sometimes

	return func(stage string, processed int64) {
		v, ok := limiters.Load(stage)
		if !ok {
			v, _ = limiters.LoadOrStore(stage, &rate.Sometimes{First: 1, Interval: interval})
		}
		v.(*rate.Sometimes).Do(func() {
			log.Info("progress", zap.String("stage", stage), zap.Int64("processed", processed))
		})
	}
}
