package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes pipeline and cache events to a logger at debug level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks creates hooks that log to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l}
}

func (h *LogHooks) OnRunStart(_ context.Context, runID string, nodes, edges int) {
	h.logger.Debug("run started", "run", runID, "nodes", nodes, "edges", edges)
}

func (h *LogHooks) OnRunComplete(_ context.Context, runID string, d time.Duration, err error) {
	h.done("run", runID, d, err)
}

func (h *LogHooks) OnModelComplete(_ context.Context, runID string, size int64, d time.Duration, err error) {
	h.done("model", runID, d, err, "bytes", size)
}

func (h *LogHooks) OnSolveStart(_ context.Context, runID, dir string) {
	h.logger.Debug("solve started", "run", runID, "dir", dir)
}

func (h *LogHooks) OnSolveComplete(_ context.Context, runID string, d time.Duration, err error) {
	h.done("solve", runID, d, err)
}

func (h *LogHooks) OnParseComplete(_ context.Context, runID string, variables int, d time.Duration, err error) {
	h.done("parse", runID, d, err, "variables", variables)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) done(step, runID string, d time.Duration, err error, kv ...any) {
	fields := append([]any{"run", runID, "elapsed", d.Round(time.Millisecond)}, kv...)
	if err != nil {
		h.logger.Debug(step+" failed", append(fields, "err", err)...)
		return
	}
	h.logger.Debug(step+" finished", fields...)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
)
