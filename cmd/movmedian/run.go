package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	medhist "github.com/AlexWan0/go-medhist"
	"github.com/AlexWan0/go-medhist/internal/config"
	"github.com/AlexWan0/go-medhist/internal/logging"
	"github.com/AlexWan0/go-medhist/internal/metrics"
)

var errBadLine = errors.New("malformed input line")

func newRootCmd() *cobra.Command {
	var (
		configPath string
		flagCfg    = config.DefaultConfig()
	)

	cmd := &cobra.Command{
		Use:   "movmedian [file]",
		Short: "Print the median of a stream of values",
		Long: `movmedian reads one value per line (or key<TAB>value with --grouped)
from a file or stdin and prints the median of the whole stream or of a sliding
window. Even counts yield the lower of the two middle values. Empty values are
treated as null and skipped.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			applyFlags(cmd, cfg, flagCfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid options: %w", err)
			}

			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return run(cmd.Context(), cfg, in, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML configuration file")
	f.IntVar(&flagCfg.Window, "window", flagCfg.Window, "median of the last N values; 0 covers the whole stream")
	f.StringVar(&flagCfg.Type, "type", flagCfg.Type, "value type: int, float or text")
	f.StringVar(&flagCfg.Locale, "locale", flagCfg.Locale, "BCP 47 locale for collating text values")
	f.BoolVar(&flagCfg.Grouped, "grouped", flagCfg.Grouped, "input lines are key<TAB>value")
	f.StringVar(&flagCfg.Emit, "emit", flagCfg.Emit, "print after each line (each) or at end of input (final)")
	f.IntVar(&flagCfg.Workers, "workers", flagCfg.Workers, "goroutines used to finalize groups; 0 is unbounded")
	f.BoolVar(&flagCfg.Approx.Enabled, "approx", flagCfg.Approx.Enabled, "also print a DDSketch estimate of the median")
	f.StringVar(&flagCfg.MetricsFile, "metrics-file", flagCfg.MetricsFile, "write Prometheus text metrics to this file")
	f.StringVar(&flagCfg.Log.Level, "log-level", flagCfg.Log.Level, "debug, info, warn or error")
	f.BoolVar(&flagCfg.Log.JSON, "log-json", flagCfg.Log.JSON, "log as JSON")

	return cmd
}

// applyFlags copies the flags set on the command line over cfg.
func applyFlags(cmd *cobra.Command, cfg, flags *config.Config) {
	changed := cmd.Flags().Changed
	if changed("window") {
		cfg.Window = flags.Window
	}
	if changed("type") {
		cfg.Type = flags.Type
	}
	if changed("locale") {
		cfg.Locale = flags.Locale
	}
	if changed("grouped") {
		cfg.Grouped = flags.Grouped
	}
	if changed("emit") {
		cfg.Emit = flags.Emit
	}
	if changed("workers") {
		cfg.Workers = flags.Workers
	}
	if changed("approx") {
		cfg.Approx.Enabled = flags.Approx.Enabled
	}
	if changed("metrics-file") {
		cfg.MetricsFile = flags.MetricsFile
	}
	if changed("log-level") {
		cfg.Log.Level = flags.Log.Level
	}
	if changed("log-json") {
		cfg.Log.JSON = flags.Log.JSON
	}
}

func run(ctx context.Context, cfg *config.Config, in io.Reader, out, errOut io.Writer) error {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logging.Init(level, cfg.Log.JSON, errOut)
	log := logging.Component("movmedian")

	reg := prometheus.NewRegistry()
	w := bufio.NewWriter(out)
	r, err := newRunner(cfg, w, metrics.NewMetrics(reg))
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		if err := r.consume(scanner.Text()); err != nil {
			if errors.Is(err, errBadLine) {
				log.Warn("skipping line", "line", line, "error", err)
				continue
			}
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if err := r.finish(ctx); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	log.Info("input done", "lines", line, "keys", len(r.keys))

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// runner feeds parsed lines to one aggregate per key: a Groups over the
// whole stream when no window is configured, otherwise one Window per key.
type runner struct {
	cfg      *config.Config
	out      io.Writer
	m        *metrics.Metrics
	parse    func(string) (any, error)
	opts     []medhist.Option
	groups   *medhist.Groups[string]
	windows  map[string]*medhist.Window
	sketches map[string]*ddsketch.DDSketch
	keys     []string
}

func newRunner(cfg *config.Config, out io.Writer, m *metrics.Metrics) (*runner, error) {
	locale, err := cfg.LocaleTag()
	if err != nil {
		return nil, err
	}
	r := &runner{
		cfg:   cfg,
		out:   out,
		m:     m,
		parse: parser(cfg.Type),
		opts: []medhist.Option{
			medhist.WithLocale(locale),
			medhist.WithLogger(logging.Component("aggregate")),
		},
	}
	if cfg.Window > 0 {
		r.windows = make(map[string]*medhist.Window)
	} else {
		r.groups = medhist.NewGroups[string](r.opts...)
		r.groups.SetLimit(cfg.Workers)
	}
	if cfg.Approx.Enabled {
		r.sketches = make(map[string]*ddsketch.DDSketch)
	}
	return r, nil
}

func parser(typ string) func(string) (any, error) {
	switch typ {
	case config.TypeInt:
		return func(s string) (any, error) { return strconv.ParseInt(strings.TrimSpace(s), 10, 64) }
	case config.TypeFloat:
		return func(s string) (any, error) { return strconv.ParseFloat(strings.TrimSpace(s), 64) }
	default:
		return func(s string) (any, error) { return s, nil }
	}
}

// consume handles one input line. Lines that cannot be parsed return an
// error wrapping errBadLine and leave every aggregate untouched.
func (r *runner) consume(line string) error {
	line = strings.TrimSuffix(line, "\r")
	key, raw := "", line
	if r.cfg.Grouped {
		var ok bool
		key, raw, ok = strings.Cut(line, "\t")
		if !ok {
			r.m.Rejected.WithLabelValues("format").Inc()
			return fmt.Errorf("no tab in %q: %w", line, errBadLine)
		}
	}

	var v any
	if raw == "" {
		r.m.Skipped.Inc()
	} else {
		parsed, err := r.parse(raw)
		if err != nil {
			r.m.Rejected.WithLabelValues("parse").Inc()
			return fmt.Errorf("%w: %w", errBadLine, err)
		}
		v = parsed
	}

	if err := r.observe(key, v); err != nil {
		return err
	}
	if v != nil {
		r.m.Observed.Inc()
	}
	if r.cfg.Emit == config.EmitEach {
		m, ok := r.median(key)
		r.print(key, m, ok, nil)
	}
	return nil
}

func (r *runner) observe(key string, v any) error {
	if r.groups != nil {
		if r.groups.Get(key) == nil {
			r.keys = append(r.keys, key)
			r.m.Groups.Inc()
		}
		if err := r.groups.Observe(key, v); err != nil {
			return err
		}
		return r.sketch(key, v)
	}

	w, ok := r.windows[key]
	if !ok {
		var err error
		if w, err = medhist.NewWindow(r.cfg.Window, r.opts...); err != nil {
			return err
		}
		r.windows[key] = w
		r.keys = append(r.keys, key)
		r.m.Groups.Inc()
	}
	full := w.Full()
	if err := w.Push(v); err != nil {
		return err
	}
	if full {
		r.m.Evicted.Inc()
	}
	return nil
}

func (r *runner) sketch(key string, v any) error {
	if r.sketches == nil || v == nil {
		return nil
	}
	s, ok := r.sketches[key]
	if !ok {
		var err error
		if s, err = ddsketch.NewDefaultDDSketch(r.cfg.Approx.Accuracy); err != nil {
			return err
		}
		r.sketches[key] = s
	}
	switch x := v.(type) {
	case int64:
		return s.Add(float64(x))
	case float64:
		return s.Add(x)
	}
	return nil
}

func (r *runner) median(key string) (any, bool) {
	if r.groups != nil {
		return r.groups.Get(key).Finalize()
	}
	return r.windows[key].Median()
}

// finish prints the final medians, in first-seen key order, and records
// the distinct-value gauge.
func (r *runner) finish(ctx context.Context) error {
	var (
		results  map[string]any
		distinct int
	)
	if r.groups != nil {
		var err error
		if results, err = r.groups.FinalizeAll(ctx); err != nil {
			return err
		}
		for _, k := range r.keys {
			if h := r.groups.Get(k).Histogram(); h != nil {
				distinct += h.Distinct()
			}
		}
	} else {
		results = make(map[string]any, len(r.windows))
		for k, w := range r.windows {
			if m, ok := w.Median(); ok {
				results[k] = m
			}
			if h := w.Aggregate().Histogram(); h != nil {
				distinct += h.Distinct()
			}
		}
	}
	r.m.Distinct.Set(float64(distinct))

	if r.cfg.Emit != config.EmitFinal {
		return nil
	}
	if len(r.keys) == 0 && !r.cfg.Grouped {
		r.print("", nil, false, nil)
		return nil
	}
	for _, k := range r.keys {
		m, ok := results[k]
		var approx *float64
		if s := r.sketches[k]; s != nil {
			if q, err := s.GetValueAtQuantile(0.5); err == nil {
				approx = &q
			}
		}
		r.print(k, m, ok, approx)
	}
	return nil
}

func (r *runner) print(key string, m any, ok bool, approx *float64) {
	var b strings.Builder
	if r.cfg.Grouped {
		b.WriteString(key)
		b.WriteByte('\t')
	}
	b.WriteString("median=")
	if ok {
		fmt.Fprint(&b, m)
	} else {
		b.WriteString("<none>")
	}
	if approx != nil {
		b.WriteString("\tapprox=")
		b.WriteString(strconv.FormatFloat(*approx, 'g', -1, 64))
	}
	b.WriteByte('\n')
	io.WriteString(r.out, b.String())
}
