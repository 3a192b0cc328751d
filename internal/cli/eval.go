package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/pipeline"
)

// evalOpts holds the command-line flags for the eval command.
type evalOpts struct {
	targets  []string // output sockets to evaluate; empty means every sink output
	refresh  bool     // ignore cached results
	noCache  bool     // disable the result cache entirely
	formats  string   // comma-separated render formats
	output   string   // base path for rendered artifacts
	detailed bool     // include socket types and params in rendered labels
	progress bool     // show the interactive progress view
	json     bool     // print values and failures as JSON
}

// evalCommand creates the eval command.
func (c *CLI) evalCommand() *cobra.Command {
	var opts evalOpts

	cmd := &cobra.Command{
		Use:   "eval [file]",
		Short: "Evaluate output sockets of a graph document",
		Long: `Evaluate output sockets of a graph document.

Without --target every output socket of every node without consumers is
evaluated. Results are cached by document hash, targets and plugin catalog,
so re-evaluating an unchanged document is instant; runs with failed nodes
are never cached.

Use --format to also render the evaluated graph; failed nodes are drawn in
red. The command exits non-zero when any node failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(opts.formats)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			return c.runEval(cmd, args[0], formats, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.targets, "target", "t", nil, "output socket(s) to evaluate (repeatable or comma-separated)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "render format(s): dot, svg (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "base path for rendered files (default: input name)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show socket types and params in rendered output")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "show per-node progress while evaluating")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")

	return cmd
}

// runEval loads the document, runs the pipeline and reports the results.
func (c *CLI) runEval(cmd *cobra.Command, input string, formats []string, opts evalOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	d, _, err := readDocument(cmd, input)
	if err != nil {
		return err
	}
	targets, err := parseTargets(opts.targets)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := pipeline.Options{
		Document: d,
		Targets:  targets,
		Refresh:  opts.refresh,
		TTL:      c.Config.Cache.TTL.Duration,
		Formats:  formats,
		Detailed: opts.detailed,
	}

	var result *pipeline.Result
	if opts.progress {
		runner.Logger = quietLogger(runner.Logger)
		result, err = runWithProgress(ctx, runner, popts, string(d.GraphID), len(d.Nodes))
	} else {
		logger.Infof("Evaluating %s", input)
		result, err = runner.Execute(ctx, popts)
	}
	if err != nil {
		return err
	}

	if err := writeArtifacts(result.Artifacts, formats, basePath(opts.output, input), !opts.json); err != nil {
		return err
	}

	if opts.json {
		if err := writeJSONResult(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		writeValues(cmd.OutOrStdout(), result)
		reportEval(result)
	}

	if n := len(result.Failures); n > 0 {
		return fmt.Errorf("%d node(s) failed", n)
	}
	return nil
}

// parseTargets validates target socket ids.
func parseTargets(raw []string) ([]ids.SocketID, error) {
	out := make([]ids.SocketID, 0, len(raw))
	for _, s := range raw {
		id, err := ids.ParseSocketID(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// writeArtifacts writes each rendered format to <base>.<format>.
func writeArtifacts(artifacts map[string][]byte, formats []string, base string, announce bool) error {
	for _, f := range formats {
		path := base + "." + f
		if err := os.WriteFile(path, artifacts[f], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		if announce {
			printFile(path)
		}
	}
	return nil
}

// writeValues prints one "target = value" line per target, with values in
// JSON notation.
func writeValues(w io.Writer, result *pipeline.Result) {
	for _, t := range result.Targets {
		fmt.Fprintf(w, "%s = %s\n", t, formatValue(result.Values[t]))
	}
}

func formatValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// jsonResult is the --json output of eval.
type jsonResult struct {
	Graph    ids.GraphID          `json:"graph"`
	Hash     string               `json:"hash"`
	Cached   bool                 `json:"cached"`
	Values   map[ids.SocketID]any `json:"values"`
	Failures []pipeline.Failure   `json:"failures"`
}

func writeJSONResult(w io.Writer, result *pipeline.Result) error {
	failures := result.Failures
	if failures == nil {
		failures = []pipeline.Failure{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonResult{
		Graph:    result.Graph.ID(),
		Hash:     result.DocumentHash,
		Cached:   result.CacheHit,
		Values:   result.Values,
		Failures: failures,
	})
}

// reportEval prints failures and run statistics.
func reportEval(result *pipeline.Result) {
	for _, f := range result.Failures {
		printWarning("%s (%s) failed: %s", strings.Join(ids.Strings(f.Path), "/"), f.Code, f.Message)
	}
	status := iconFresh
	if result.CacheHit {
		status = iconCached
	}
	printStats(result.Stats.NodeCount, result.Stats.WireCount, status)
	if !result.CacheHit {
		e := result.Eval
		printDetail("%d computed · %d reused · %d failed · %d skipped in %s",
			e.Misses-e.Failed, e.Hits, e.Failed, e.Skipped, result.Stats.EvaluateTime.Round(time.Microsecond))
	}
}

// runWithProgress executes the pipeline on a worker goroutine while an
// evalModel renders per-node progress on stderr.
func runWithProgress(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, title string, total int) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := newEvalProgram(newEvalModel(title, total, cancel), os.Stderr)
	opts.Hooks = progressHooks(p)

	go func() {
		res, err := runner.Execute(ctx, opts)
		p.Send(evalDoneMsg{result: res, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(evalModel)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}
