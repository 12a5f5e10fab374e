package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/m3rciful/mediabot/core/logger"
)

const component = "fetch"

// Deliver hands a produced file to the user while the workspace still exists.
type Deliver func(ctx context.Context, f File) error

// Observer receives a Report after every Fetch.
type Observer interface {
	ObserveFetch(ctx context.Context, r Report)
}

// Options configures an Orchestrator.
type Options struct {
	// Root is the scratch directory that holds one workspace per request.
	Root    string
	Formats Formats
	// Timeout bounds a whole Fetch, delivery included; zero means no bound.
	Timeout time.Duration
	// MaxConcurrent caps simultaneous fetches; zero means unbounded.
	MaxConcurrent int64
}

// Orchestrator runs fetch requests. It is safe for concurrent use.
type Orchestrator struct {
	engine    Engine
	opts      Options
	sem       *semaphore.Weighted
	observers []Observer
	inflight  atomic.Int64

	newID  func() string
	remove func(string) error
	now    func() time.Time
}

// NewOrchestrator validates opts and returns an Orchestrator.
func NewOrchestrator(engine Engine, opts Options, observers ...Observer) (*Orchestrator, error) {
	if engine == nil {
		return nil, errors.New("fetch: engine required")
	}
	opts.Root = strings.TrimSpace(opts.Root)
	if opts.Root == "" {
		return nil, errors.New("fetch: scratch root required")
	}
	o := &Orchestrator{
		engine:    engine,
		opts:      opts,
		observers: observers,
		newID:     func() string { return uuid.NewString() },
		remove:    os.RemoveAll,
		now:       time.Now,
	}
	if opts.MaxConcurrent > 0 {
		o.sem = semaphore.NewWeighted(opts.MaxConcurrent)
	}
	return o, nil
}

// InFlight returns the number of fetches currently running or waiting for a slot.
func (o *Orchestrator) InFlight() int64 {
	return o.inflight.Load()
}

// Fetch retrieves req into a fresh workspace, passes the file to deliver and
// removes the workspace. Every error is folded into the returned Outcome.
func (o *Orchestrator) Fetch(ctx context.Context, req Request, deliver Deliver) (out Outcome) {
	o.inflight.Add(1)
	defer o.inflight.Add(-1)

	start := o.now()
	report := Report{
		CorrelationID: o.newID(),
		Request:       req,
		StartedAt:     start,
	}
	ctx = logger.WithCorrelation(ctx, report.CorrelationID)
	attrs := []slog.Attr{
		slog.Int64("session_id", req.SessionID),
		slog.String("kind", string(req.Mode)),
	}
	parent := ctx
	defer func() {
		report.Outcome = out
		report.Duration = o.now().Sub(start)
		o.logOutcome(parent, report, attrs)
		o.notify(parent, report)
	}()

	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	if o.sem != nil {
		if err := o.sem.Acquire(ctx, 1); err != nil {
			return o.failure(ctx, err)
		}
		defer o.sem.Release(1)
	}

	ws, err := NewWorkspace(o.opts.Root, report.CorrelationID)
	if err != nil {
		return failed(CauseUnexpected, err.Error())
	}
	defer func() {
		if err := ws.Cleanup(o.remove); err != nil {
			report.CleanupErr = err
			logger.Warn(ctx, component, "workspace.cleanup.fail",
				append(attrs, slog.String("err", err.Error()))...,
			)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, component, "fetch.panic",
				append(attrs, slog.String("err", fmt.Sprint(r)))...,
			)
			out = failed(CauseUnexpected, fmt.Sprint(r))
		}
	}()

	logger.Debug(ctx, component, "fetch.start", attrs...)
	return o.run(ctx, ws, req, deliver)
}

func (o *Orchestrator) run(ctx context.Context, ws *Workspace, req Request, deliver Deliver) Outcome {
	primary, fallback := Plan(req.Mode, o.opts.Formats)

	res, err := o.attempt(ctx, ws, req, primary)
	if err == nil {
		return o.finish(ctx, ws, req, res, primary, deliver)
	}
	var rerr *RetrievalError
	if !errors.As(err, &rerr) {
		return o.failure(ctx, err)
	}
	logger.Warn(ctx, component, "fetch.primary.fail",
		slog.Int64("session_id", req.SessionID),
		slog.String("strategy", primary.Name),
		slog.String("err", rerr.Message),
	)

	res, err = o.attempt(ctx, ws, req, fallback)
	if err == nil {
		return o.finish(ctx, ws, req, res, fallback, deliver)
	}
	if errors.As(err, &rerr) {
		return failed(CauseRetrieval, rerr.Message)
	}
	return o.failure(ctx, err)
}

func (o *Orchestrator) attempt(ctx context.Context, ws *Workspace, req Request, s Strategy) (EngineResult, error) {
	// Each attempt gets its own template so fallback output never reuses primary leftovers.
	name := fmt.Sprintf("%s_%s.%%(ext)s", req.Mode, strings.ReplaceAll(o.newID(), "-", ""))
	return o.engine.Fetch(ctx, EngineRequest{
		Locator:        req.Locator,
		Strategy:       s,
		OutputTemplate: filepath.Join(ws.Dir, name),
		Dir:            ws.Dir,
	})
}

func (o *Orchestrator) finish(ctx context.Context, ws *Workspace, req Request, res EngineResult, s Strategy, deliver Deliver) Outcome {
	path := strings.TrimSpace(res.Path)
	if path == "" {
		return notFound(s.Name)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(ws.Dir, path)
	}
	if !ws.Contains(path) {
		logger.Warn(ctx, component, "fetch.output.outside",
			slog.Int64("session_id", req.SessionID),
			slog.String("strategy", s.Name),
		)
		return notFound(s.Name)
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return notFound(s.Name)
	}

	f := File{Path: path, Kind: req.Mode, Size: info.Size()}
	if deliver != nil {
		if err := deliver(ctx, f); err != nil {
			if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return failed(CauseTimeout, err.Error())
			}
			return failed(CauseDelivery, err.Error())
		}
	}
	return delivered(f, s.Name)
}

func (o *Orchestrator) failure(ctx context.Context, err error) Outcome {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return failed(CauseTimeout, "deadline exceeded")
	}
	return failed(CauseUnexpected, logger.SanitizeLimit(err.Error(), 200))
}

func (o *Orchestrator) logOutcome(ctx context.Context, r Report, attrs []slog.Attr) {
	attrs = append(attrs,
		slog.String("outcome", string(r.Outcome.Status)),
		slog.Duration("duration", r.Duration),
	)
	if r.Outcome.Strategy != "" {
		attrs = append(attrs, slog.String("strategy", r.Outcome.Strategy))
	}
	switch r.Outcome.Status {
	case StatusDelivered:
		attrs = append(attrs, slog.String("size", humanize.Bytes(uint64(r.Outcome.File.Size))))
		logger.Info(ctx, component, "fetch.done", attrs...)
	case StatusNotFound:
		logger.Warn(ctx, component, "fetch.done", attrs...)
	default:
		attrs = append(attrs,
			slog.String("cause", string(r.Outcome.Cause)),
			slog.String("err", r.Outcome.Reason),
		)
		logger.Error(ctx, component, "fetch.done", attrs...)
	}
}

func (o *Orchestrator) notify(ctx context.Context, r Report) {
	for _, obs := range o.observers {
		if obs == nil {
			continue
		}
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error(ctx, component, "observer.panic", slog.String("err", fmt.Sprint(rec)))
				}
			}()
			obs.ObserveFetch(ctx, r)
		}()
	}
}
