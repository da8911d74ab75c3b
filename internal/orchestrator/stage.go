package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aiox-platform/agentbrain/internal/metrics"
	"github.com/aiox-platform/agentbrain/internal/usage"
)

// Stage names, in pipeline order.
const (
	StageGuardrail       = "guardrail"
	StageRecordUser      = "record_user"
	StageRewrite         = "rewrite"
	StageRetrieve        = "retrieve"
	StageClassify        = "classify"
	StageDispatch        = "dispatch"
	StageRecordAssistant = "record_assistant"
)

// ErrStageTimeout is returned when a stage outlives its deadline.
var ErrStageTimeout = errors.New("pipeline stage timed out")

// StageTimeoutError names the stage whose deadline expired.
type StageTimeoutError struct {
	Stage   string
	Timeout time.Duration
	Err     error
}

func (e *StageTimeoutError) Error() string {
	return fmt.Sprintf("stage %s timed out after %s: %v", e.Stage, e.Timeout, e.Err)
}

func (e *StageTimeoutError) Unwrap() []error {
	return []error{ErrStageTimeout, context.DeadlineExceeded, e.Err}
}

// runStage executes fn under the stage deadline inside its own span and
// folds its usage into acc on success.
func (o *Orchestrator) runStage(ctx context.Context, name string, acc *usage.Accumulator, fn func(context.Context) (usage.Record, error)) error {
	ctx, span := o.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	stageCtx := ctx
	if o.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, o.opts.StageTimeout)
		defer cancel()
	}

	start := time.Now()
	rec, err := fn(stageCtx)
	elapsed := time.Since(start)
	metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	if err != nil {
		if ctx.Err() == nil && errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
			err = &StageTimeoutError{Stage: name, Timeout: o.opts.StageTimeout, Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("stage %s: %w", name, err)
	}

	acc.Add(name, rec)
	metrics.TokensTotal.WithLabelValues(name, "prompt").Add(float64(rec.TokensPrompt))
	metrics.TokensTotal.WithLabelValues(name, "completion").Add(float64(rec.TokensCompletion))
	metrics.CostUSDTotal.WithLabelValues(name).Add(rec.CostUSD)
	span.SetAttributes(
		attribute.Int64("usage.tokens_total", rec.TokensTotal),
		attribute.Float64("usage.cost_usd", rec.CostUSD),
	)

	slog.Info("pipeline: stage completed",
		"stage", name,
		"tokens_total", rec.TokensTotal,
		"cost_usd", rec.CostUSD,
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}
