// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Hosts can register hooks at startup
// to receive events about evaluation, cache operations, and plugin lifecycle.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// Hook arguments are plain values (ids as strings, counts, durations) so this
// package imports nothing from nodeflow.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEngineHooks(&myEngineHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Engine().OnEvaluateStart(ctx, graphID, len(targets))
//	// ... evaluate ...
//	observability.Engine().OnEvaluateComplete(ctx, graphID, hits, misses, failed, duration)
//
// Per-evaluation progress for a single caller is delivered through
// engine.Hooks instead; the hooks here are process-wide.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from the execution engine.
type EngineHooks interface {
	// OnEvaluateStart records the start of a top-level evaluation.
	OnEvaluateStart(ctx context.Context, graphID string, targets int)

	// OnEvaluateComplete records the end of a top-level evaluation.
	OnEvaluateComplete(ctx context.Context, graphID string, hits, misses, failed int, duration time.Duration)

	// OnNodeEvaluated records one node visit. Cache hits report zero duration.
	OnNodeEvaluated(ctx context.Context, nodeType string, cacheHit bool, duration time.Duration, err error)

	// OnSubgraphEnter records expansion of an embedded graph at depth.
	OnSubgraphEnter(ctx context.Context, graphID string, depth int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Registry Hooks
// =============================================================================

// RegistryHooks receives events from plugin registration.
type RegistryHooks interface {
	// OnPluginRegistered records a registration attempt; err is nil on success.
	OnPluginRegistered(ctx context.Context, pluginID string, duration time.Duration, err error)

	// OnPluginUnregistered records a removal attempt; err is nil on success.
	OnPluginUnregistered(ctx context.Context, pluginID string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnEvaluateStart(context.Context, string, int) {}
func (NoopEngineHooks) OnEvaluateComplete(context.Context, string, int, int, int, time.Duration) {
}
func (NoopEngineHooks) OnNodeEvaluated(context.Context, string, bool, time.Duration, error) {}
func (NoopEngineHooks) OnSubgraphEnter(context.Context, string, int)                        {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopRegistryHooks is a no-op implementation of RegistryHooks.
type NoopRegistryHooks struct{}

func (NoopRegistryHooks) OnPluginRegistered(context.Context, string, time.Duration, error) {}
func (NoopRegistryHooks) OnPluginUnregistered(context.Context, string, error)              {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	engineHooks   EngineHooks   = NoopEngineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	registryHooks RegistryHooks = NoopRegistryHooks{}
	hooksMu       sync.RWMutex
)

// SetEngineHooks registers custom engine hooks.
// This should be called once at application startup before any evaluation.
func SetEngineHooks(h EngineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		engineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetRegistryHooks registers custom plugin registry hooks.
func SetRegistryHooks(h RegistryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		registryHooks = h
	}
}

// Engine returns the registered engine hooks.
func Engine() EngineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return engineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Registry returns the registered plugin registry hooks.
func Registry() RegistryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return registryHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	engineHooks = NoopEngineHooks{}
	cacheHooks = NoopCacheHooks{}
	registryHooks = NoopRegistryHooks{}
}
