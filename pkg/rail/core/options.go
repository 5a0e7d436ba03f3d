package core

import (
	"context"
	"maps"
	"time"

	"go.uber.org/zap"
)

type OptionKey string

const (
	SettingsOptionKey OptionKey = "settings_options"
	WorkerOptionKey   OptionKey = "worker_options"
)

// Observer receives per-item and per-stage events. Implementations must be
// safe for concurrent use: every handler goroutine reports through it.
type Observer interface {
	Submitted(stage string)
	Processed(stage string, handler int, took time.Duration)
	Failed(stage string, handler int, err error)
	Discarded(stage string)
	Pending(stage string, pending int64)
	Capacity(stage string, capacity int)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Submitted(string)                     {}
func (NopObserver) Processed(string, int, time.Duration) {}
func (NopObserver) Failed(string, int, error)            {}
func (NopObserver) Discarded(string)                     {}
func (NopObserver) Pending(string, int64)                {}
func (NopObserver) Capacity(string, int)                 {}

// ProgressFunc is invoked once per processed item with the running total of
// items the stage has completed.
type ProgressFunc func(stage string, processed int64)

// Settings is the cross-cutting configuration handed to every stage at link
// time. The zero value is usable.
type Settings struct {
	Logger   *zap.Logger
	Observer Observer
	Progress ProgressFunc
	Values   map[string]string
}

// WithDefaults fills unset fields with no-op implementations.
func (s Settings) WithDefaults() Settings {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	if s.Observer == nil {
		s.Observer = NopObserver{}
	}
	return s
}

// Merge returns s overridden by every field that is set in o. Values are
// merged key by key.
func (s Settings) Merge(o Settings) Settings {
	if o.Logger != nil {
		s.Logger = o.Logger
	}
	if o.Observer != nil {
		s.Observer = o.Observer
	}
	if o.Progress != nil {
		s.Progress = o.Progress
	}
	if len(o.Values) > 0 {
		merged := make(map[string]string, len(s.Values)+len(o.Values))
		maps.Copy(merged, s.Values)
		maps.Copy(merged, o.Values)
		s.Values = merged
	}
	return s
}

func (s Settings) Value(key, defaultValue string) string {
	if v, ok := s.Values[key]; ok {
		return v
	}
	return defaultValue
}

func (s Settings) ReportProgress(stage string, processed int64) {
	if s.Progress != nil {
		s.Progress(stage, processed)
	}
}

func WithSettings(ctx context.Context, s Settings) context.Context {
	return context.WithValue(ctx, SettingsOptionKey, s)
}

func SettingsFrom(ctx context.Context) (Settings, bool) {
	s, ok := ctx.Value(SettingsOptionKey).(Settings)
	return s, ok
}

type MaxLimitOption struct {
	Value int
}

type WorkerOptions struct {
	MaxCount MaxLimitOption
}

func WithWorkerOptions(ctx context.Context, maxWorkers int) context.Context {
	return context.WithValue(ctx, WorkerOptionKey, WorkerOptions{MaxLimitOption{Value: maxWorkers}})
}

func GetWorkerMaxCount(ctx context.Context, defaultMaxWorkers int) int {
	options, ok := ctx.Value(WorkerOptionKey).(WorkerOptions)
	if ok && options.MaxCount.Value > 0 {
		return options.MaxCount.Value
	}
	return defaultMaxWorkers
}
