// Package fanout issues a batch of independent downstream calls concurrently
// under one shared deadline and collects their results in input order.
//
// Each call is declared required or optional. A failed required call fails the
// whole batch and cancels the calls still in flight; a failed optional call is
// recorded as absent and the batch continues.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"docfront/internal/downstream"
	"docfront/internal/requestid"
)

const tracerName = "docfront/internal/fanout"

// DefaultTimeout bounds a batch when the executor is built with a non-positive timeout.
const DefaultTimeout = 5 * time.Second

// Call performs one downstream request and returns its decoded payload.
type Call func(ctx context.Context) (any, error)

// Spec declares one downstream call of a batch.
type Spec struct {
	// Name identifies the result inside the batch; it must be unique.
	Name string
	// Target describes the remote operation for logs, e.g. "GET /author".
	Target string
	// Required calls abort the batch on failure.
	Required bool
	Call     Call
}

// Result is the outcome of one Spec. Err is set only for absent optional results.
type Result struct {
	Name  string
	Value any
	Err   error
}

// Absent reports whether the optional call failed and carries no value.
func (r Result) Absent() bool {
	return r.Err != nil
}

// Results holds one Result per Spec, in Spec order.
type Results []Result

// Lookup returns the result named name.
func (rs Results) Lookup(name string) (Result, bool) {
	for _, r := range rs {
		if r.Name == name {
			return r, true
		}
	}
	return Result{}, false
}

// Degraded returns the names of absent results, in Spec order.
func (rs Results) Degraded() []string {
	var out []string
	for _, r := range rs {
		if r.Absent() {
			out = append(out, r.Name)
		}
	}
	return out
}

// Get returns the value named name as T. It reports false when the result is
// missing, absent, or of another type; the zero T is returned in that case.
func Get[T any](rs Results, name string) (T, bool) {
	var zero T
	r, ok := rs.Lookup(name)
	if !ok || r.Absent() {
		return zero, false
	}
	v, ok := r.Value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// RequiredError reports the failure of a required call.
type RequiredError struct {
	Name   string
	Target string
	Err    error
}

func (e *RequiredError) Error() string {
	return fmt.Sprintf("required fetch %q (%s) failed: %v", e.Name, e.Target, e.Err)
}

func (e *RequiredError) Unwrap() error {
	return e.Err
}

// StatusCode maps the failure to the status the front should answer with:
// 404 when the downstream said 404, 503 otherwise.
func (e *RequiredError) StatusCode() int {
	if downstream.IsNotFound(e.Err) {
		return http.StatusNotFound
	}
	return http.StatusServiceUnavailable
}

// Executor runs batches of Specs. It holds no per-request state and is safe
// for concurrent use.
type Executor struct {
	timeout time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for degradation and failure events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records per-fetch outcome and latency.
func WithMetrics(m *Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// New returns an Executor whose batches share a deadline of timeout.
func New(timeout time.Duration, opts ...Option) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	e := &Executor{timeout: timeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Timeout returns the shared batch deadline.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

var errNilCall = errors.New("fanout: spec has no call")

// Run executes specs concurrently and waits for all of them to settle.
//
// Behavior:
// - The correlation id of ctx (generated when absent) is attached to every call.
// - Every call shares one deadline of e.Timeout() from the start of Run.
// - The returned Results are in specs order regardless of completion order.
// - On a required failure the remaining calls are cancelled and a *RequiredError is returned.
func (e *Executor) Run(ctx context.Context, specs []Spec) (Results, error) {
	if err := validate(specs); err != nil {
		return nil, err
	}

	ctx, rid := requestid.Ensure(ctx)
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	results := make(Results, len(specs))

	for i, s := range specs {
		g.Go(func() error {
			sctx, span := otel.Tracer(tracerName).Start(gctx, "fetch "+s.Name,
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(
					attribute.String("fetch.target", s.Target),
					attribute.Bool("fetch.required", s.Required),
				),
			)
			defer span.End()

			start := time.Now()
			v, err := invoke(sctx, s.Call)
			results[i] = Result{Name: s.Name, Value: v, Err: err}
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}

			if err == nil {
				e.metrics.observe(s.Name, outcomeOK, time.Since(start))
				return nil
			}
			if s.Required {
				e.metrics.observe(s.Name, outcomeFailed, time.Since(start))
				return &RequiredError{Name: s.Name, Target: s.Target, Err: err}
			}

			results[i].Value = nil
			e.metrics.observe(s.Name, outcomeAbsent, time.Since(start))
			// Siblings cancelled after a required failure are not worth a warning.
			if gctx.Err() == nil || ctx.Err() != nil {
				e.logger.Warn("optional fetch degraded",
					"request_id", rid,
					"fetch", s.Name,
					"target", s.Target,
					"error", err.Error(),
				)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var re *RequiredError
		if errors.As(err, &re) {
			e.logger.Error("required fetch failed",
				"request_id", rid,
				"fetch", re.Name,
				"target", re.Target,
				"status", re.StatusCode(),
				"error", re.Err.Error(),
			)
		}
		return nil, err
	}
	return results, nil
}

func validate(specs []Spec) error {
	seen := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		if s.Call == nil {
			return fmt.Errorf("%w: %q", errNilCall, s.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("fanout: duplicate spec name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

// invoke runs call, converting a panic into an error so one broken call
// cannot take the request down.
func invoke(ctx context.Context, call Call) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			v, err = nil, fmt.Errorf("fanout: call panicked: %v", p)
		}
	}()
	return call(ctx)
}
