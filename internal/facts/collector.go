package facts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikicat/rhsm-facts/internal/arch"
	"github.com/nikicat/rhsm-facts/internal/clock"
)

// Env is what a probe may consult besides the system itself.
type Env struct {
	Arch   string
	Prefix string
	// Prior holds facts from a different, already completed collection.
	// Probes get their own copy; changes do not reach the collector.
	Prior Facts
}

// ProbeFunc gathers one group of facts.
type ProbeFunc func(ctx context.Context, env Env) (Facts, error)

// HardwareMethod is a named probe.
type HardwareMethod struct {
	Name  string
	Probe ProbeFunc
}

// MethodResult is the outcome of running one HardwareMethod.
type MethodResult struct {
	Name  string
	Facts Facts
	Err   error
}

// OK reports whether the method produced facts.
func (r MethodResult) OK() bool { return r.Err == nil }

// RunMethod invokes m and turns an error or a panic into a failed result.
func RunMethod(ctx context.Context, m HardwareMethod, env Env) (res MethodResult) {
	res.Name = m.Name
	defer func() {
		if p := recover(); p != nil {
			res.Facts = nil
			res.Err = fmt.Errorf("panic: %v", p)
		}
	}()

	if m.Probe == nil {
		res.Err = fmt.Errorf("hardware method %q has no probe", m.Name)
		return res
	}
	f, err := m.Probe(ctx, env)
	if err != nil {
		res.Err = err
		return res
	}
	res.Facts = f
	return res
}

// FactsCollector produces a Collection.
type FactsCollector interface {
	Collect(ctx context.Context) *Collection
}

// Options configures a Collector.
type Options struct {
	// Arch skips architecture detection when set.
	Arch string
	// Prefix points arch detection and file-based probes at a fixture
	// tree. Empty means the real root.
	Prefix  string
	Methods []HardwareMethod
	Prior   Facts
	Logger  *slog.Logger
	Clock   clock.Clock
}

// Collector runs hardware methods in order and merges their facts.
// It never caches.
type Collector struct {
	arch    string
	prefix  string
	methods []HardwareMethod
	prior   Facts
	logger  *slog.Logger
	clock   clock.Clock
}

// NewCollector builds a Collector. An unreadable arch override under
// opts.Prefix is returned as an error.
func NewCollector(opts Options) (*Collector, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "facts.collector")

	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}

	a := opts.Arch
	if a == "" {
		var err error
		a, err = arch.GetArch(opts.Prefix)
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("facts collector init", "arch", a, "methods", len(opts.Methods))

	return &Collector{
		arch:    a,
		prefix:  opts.Prefix,
		methods: opts.Methods,
		prior:   opts.Prior,
		logger:  logger,
		clock:   clk,
	}, nil
}

// Arch returns the resolved architecture.
func (c *Collector) Arch() string { return c.arch }

// Prefix returns the filesystem prefix handed to probes.
func (c *Collector) Prefix() string { return c.prefix }

// Prior returns a copy of the facts from the earlier collection run.
func (c *Collector) Prior() Facts { return c.prior.Clone() }

// Methods returns the configured hardware method names in run order.
func (c *Collector) Methods() []string {
	names := make([]string, len(c.methods))
	for i, m := range c.methods {
		names[i] = m.Name
	}
	return names
}

// Results runs every hardware method in order, one at a time.
func (c *Collector) Results(ctx context.Context) []MethodResult {
	results := make([]MethodResult, 0, len(c.methods))
	for _, m := range c.methods {
		env := Env{Arch: c.arch, Prefix: c.prefix, Prior: c.prior.Clone()}
		results = append(results, RunMethod(ctx, m, env))
	}
	return results
}

// GetAll merges the facts of every successful method. Later methods win
// on duplicate names. Failed methods are logged and skipped.
func (c *Collector) GetAll(ctx context.Context) Facts {
	all := Facts{}
	for _, res := range c.Results(ctx) {
		if !res.OK() {
			c.logger.Warn("hardware detection failed", "method", res.Name, "error", res.Err)
			continue
		}
		all.Merge(res.Facts)
	}
	return all
}

// Collect gathers all facts into a Collection stamped with the current time.
func (c *Collector) Collect(ctx context.Context) *Collection {
	all := c.GetAll(ctx)
	c.logger.Debug("facts collected", "count", len(all))
	return NewCollection(all, c.clock.Now())
}

// now is the collector's notion of the current time.
func (c *Collector) now() time.Time { return c.clock.Now() }
