package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeflow/pkg/cache"
	"github.com/matzehuels/nodeflow/pkg/document"
	"github.com/matzehuels/nodeflow/pkg/engine"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/observability"
	"github.com/matzehuels/nodeflow/pkg/plugin"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// Runner executes the pipeline against one plugin registry.
//
// The Runner is stateless except for its collaborators. Multiple goroutines
// can use the same Runner as long as nobody registers plugins concurrently.
type Runner struct {
	Registry *plugin.Registry
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger

	// MaxSubgraphDepth bounds subgraph nesting; zero means engine.MaxSubgraphDepth.
	MaxSubgraphDepth int
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(reg *plugin.Registry, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Registry: reg,
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
	}
}

// cachedResult is the stored form of an evaluation.
type cachedResult struct {
	Values map[ids.SocketID]any `json:"values"`
}

// Execute runs build, evaluate and (when formats are requested) render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	matrix := r.Registry.Matrix()
	result := &Result{}

	// Stage 1: Build
	buildStart := time.Now()
	g, err := document.ToGraph(opts.Document, matrix)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	hash, err := document.Hash(opts.Document)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Graph = g
	result.DocumentHash = hash
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.WireCount = g.WireCount()
	result.Stats.BuildTime = time.Since(buildStart)

	result.Targets = opts.Targets
	if len(result.Targets) == 0 {
		result.Targets = DefaultTargets(g)
	}
	if len(result.Targets) == 0 {
		return nil, errors.New("build: graph has no output sockets to evaluate")
	}

	r.Logger.Debug("built graph",
		"graph", g.ID(),
		"nodes", result.Stats.NodeCount,
		"wires", result.Stats.WireCount,
		"hash", hash[:12])

	// Stage 2: Evaluate
	evalStart := time.Now()
	if err := r.evaluate(ctx, g, matrix, opts, result); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	result.Stats.EvaluateTime = time.Since(evalStart)

	r.Logger.Info("evaluated graph",
		"graph", g.ID(),
		"targets", len(result.Targets),
		"cached", result.CacheHit,
		"failed", len(result.Failures),
		"duration", result.Stats.EvaluateTime)

	// Stage 3: Render
	if len(opts.Formats) > 0 {
		renderStart := time.Now()
		artifacts, err := Render(ctx, g, result.State, opts)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		result.Artifacts = artifacts
		result.Stats.RenderTime = time.Since(renderStart)
		r.Logger.Debug("rendered outputs", "formats", opts.Formats, "duration", result.Stats.RenderTime)
	}

	return result, nil
}

func (r *Runner) evaluate(ctx context.Context, g *graph.Graph, m *types.Matrix, opts Options, result *Result) error {
	key := r.Keyer.ResultKey(result.DocumentHash, ids.Strings(result.Targets), cache.ResultKeyOpts{
		Catalog:          CatalogFingerprint(r.Registry),
		MaxSubgraphDepth: r.maxDepth(),
	})

	if !opts.Refresh {
		if values, ok := r.lookup(ctx, key); ok {
			result.Values = values
			result.CacheHit = true
			return nil
		}
	}

	ev := engine.New(r.Registry, m, r.Logger)
	ev.MaxSubgraphDepth = r.maxDepth()
	res, err := ev.EvaluateSockets(ctx, g, result.Targets, nil, opts.Hooks)
	if err != nil {
		return err
	}
	result.Values = res.Values
	result.State = res.State
	result.Eval = res.Stats
	result.Failures = Failures(res.State)

	if len(result.Failures) == 0 {
		ttl := opts.TTL
		if ttl == 0 {
			ttl = cache.TTLResult
		}
		r.store(ctx, key, res.Values, ttl)
	}
	return nil
}

// lookup returns cached values for key. Backend and decode failures are
// logged and treated as misses.
func (r *Runner) lookup(ctx context.Context, key string) (map[ids.SocketID]any, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, cache.KeyTypeResult)
		return nil, false
	}
	var cr cachedResult
	if err := json.Unmarshal(data, &cr); err != nil {
		r.Logger.Debug("discarding unreadable cache entry", "error", err)
		observability.Cache().OnCacheMiss(ctx, cache.KeyTypeResult)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, cache.KeyTypeResult)
	return cr.Values, true
}

func (r *Runner) store(ctx context.Context, key string, values map[ids.SocketID]any, ttl time.Duration) {
	data, err := json.Marshal(cachedResult{Values: values})
	if err != nil {
		r.Logger.Debug("result not cacheable", "error", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cache.KeyTypeResult, len(data))
}

func (r *Runner) maxDepth() int {
	if r.MaxSubgraphDepth > 0 {
		return r.MaxSubgraphDepth
	}
	return engine.MaxSubgraphDepth
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// CatalogFingerprint hashes the ids and versions of every registered plugin.
// Cached results are only reused while the fingerprint is unchanged.
func CatalogFingerprint(reg *plugin.Registry) string {
	var b strings.Builder
	for _, id := range reg.Plugins() {
		p, _ := reg.Plugin(id)
		fmt.Fprintf(&b, "%s@%s\n", id, p.Version)
	}
	return cache.Hash([]byte(b.String()))
}
