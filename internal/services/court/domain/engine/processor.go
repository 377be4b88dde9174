package engine

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/decicourt/internal/platform/errors"
	"github.com/louisbranch/decicourt/internal/platform/otel"
	"github.com/louisbranch/decicourt/internal/platform/timeouts"
	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	"github.com/louisbranch/decicourt/internal/services/court/domain/court"
)

const (
	defaultQueueSize = 64
	tracerName       = "github.com/louisbranch/decicourt/internal/services/court/domain/engine"
)

// Processor is the single owner of a Core. Commands and reads are queued
// and run one at a time on the Run goroutine.
type Processor struct {
	core         *Core
	queue        chan request
	stopped      chan struct{}
	logger       *zap.Logger
	tracer       trace.Tracer
	queueTimeout time.Duration
}

type request struct {
	ctx   context.Context
	cmd   command.Command
	view  func(court.World)
	reply chan response
}

type response struct {
	result Result
	err    error
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithQueueSize bounds the number of waiting requests.
func WithQueueSize(size int) ProcessorOption {
	return func(p *Processor) {
		if size > 0 {
			p.queue = make(chan request, size)
		}
	}
}

// WithQueueTimeout caps how long Submit waits for a queue slot.
func WithQueueTimeout(d time.Duration) ProcessorOption {
	return func(p *Processor) {
		if d > 0 {
			p.queueTimeout = d
		}
	}
}

// WithLogger sets the processor logger.
func WithLogger(logger *zap.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProcessor wraps core. Call Run to start consuming.
func NewProcessor(core *Core, opts ...ProcessorOption) *Processor {
	p := &Processor{
		core:         core,
		queue:        make(chan request, defaultQueueSize),
		stopped:      make(chan struct{}),
		logger:       zap.NewNop(),
		tracer:       otel.Tracer(tracerName),
		queueTimeout: timeouts.CommandQueue,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run consumes the queue until ctx is canceled.
func (p *Processor) Run(ctx context.Context) error {
	defer close(p.stopped)
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-p.queue:
			p.serve(req)
		}
	}
}

func (p *Processor) serve(req request) {
	if req.view != nil {
		req.view(p.core.World())
		req.reply <- response{}
		return
	}
	result, err := p.execute(req.ctx, req.cmd)
	req.reply <- response{result: result, err: err}
}

func (p *Processor) execute(ctx context.Context, cmd command.Command) (Result, error) {
	attrs := []attribute.KeyValue{attribute.String("court.command.type", string(cmd.Type))}
	if caseID := caseIDOf(cmd); caseID != "" {
		attrs = append(attrs, attribute.String("court.case_id", caseID))
	}
	ctx, span := p.tracer.Start(ctx, "court.command", trace.WithAttributes(attrs...))
	defer span.End()

	result, err := p.core.Execute(ctx, cmd)
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		p.logger.Warn("command failed",
			zap.String("command_type", string(cmd.Type)),
			zap.String("actor_id", cmd.ActorID),
			zap.String("request_id", cmd.RequestID),
			zap.Bool("non_retryable", IsNonRetryable(err)),
			zap.Error(err),
		)
	case result.Rejected():
		rejection := result.Decision.Rejections[0]
		span.SetAttributes(attribute.String("court.rejection", rejection.Code))
		p.logger.Info("command rejected",
			zap.String("command_type", string(cmd.Type)),
			zap.String("actor_id", cmd.ActorID),
			zap.String("request_id", cmd.RequestID),
			zap.String("code", rejection.Code),
			zap.String("reason", rejection.Message),
		)
	default:
		events := result.Decision.Events
		fields := []zap.Field{
			zap.String("command_type", string(cmd.Type)),
			zap.String("actor_id", cmd.ActorID),
			zap.String("request_id", cmd.RequestID),
			zap.Int("events", len(events)),
		}
		if len(events) > 0 {
			fields = append(fields,
				zap.Uint64("first_seq", events[0].Seq),
				zap.Uint64("last_seq", events[len(events)-1].Seq),
			)
		}
		p.logger.Debug("command accepted", fields...)
	}
	return result, err
}

// Submit queues cmd and waits for its result. A call made from inside a
// running command, such as a ledger callback during a payout, runs inline so
// the reentrancy guard sees it instead of deadlocking on the queue.
func (p *Processor) Submit(ctx context.Context, cmd command.Command) (Result, error) {
	if withinCommand(ctx) {
		return p.execute(ctx, cmd)
	}
	resp, err := p.enqueue(ctx, request{ctx: ctx, cmd: cmd})
	if err != nil {
		return Result{Command: cmd}, err
	}
	return resp.result, resp.err
}

// View runs fn against the live World on the processor goroutine. fn must
// not retain the World or anything reachable from it.
func (p *Processor) View(ctx context.Context, fn func(court.World)) error {
	if withinCommand(ctx) {
		fn(p.core.World())
		return nil
	}
	_, err := p.enqueue(ctx, request{ctx: ctx, view: fn})
	return err
}

// Snapshot returns a deep copy of the World.
func (p *Processor) Snapshot(ctx context.Context) (court.World, error) {
	var snapshot court.World
	err := p.View(ctx, func(w court.World) {
		snapshot = w.Clone()
	})
	return snapshot, err
}

func (p *Processor) enqueue(ctx context.Context, req request) (response, error) {
	req.reply = make(chan response, 1)
	timer := time.NewTimer(p.queueTimeout)
	defer timer.Stop()

	select {
	case p.queue <- req:
	case <-ctx.Done():
		return response{}, ctx.Err()
	case <-p.stopped:
		return response{}, ErrProcessorStopped
	case <-timer.C:
		return response{}, apperrors.New(apperrors.CodeCommandQueueFull, "command queue full")
	}

	select {
	case resp := <-req.reply:
		return resp, nil
	case <-ctx.Done():
		return response{}, ctx.Err()
	case <-p.stopped:
		return response{}, ErrProcessorStopped
	}
}

func caseIDOf(cmd command.Command) string {
	var target struct {
		CaseID uint64 `json:"case_id"`
	}
	if err := json.Unmarshal(cmd.PayloadJSON, &target); err != nil || target.CaseID == 0 {
		return ""
	}
	return strconv.FormatUint(target.CaseID, 10)
}
