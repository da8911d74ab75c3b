package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/aiox-platform/agentbrain/internal/agent"
	"github.com/aiox-platform/agentbrain/internal/knowledge"
	"github.com/aiox-platform/agentbrain/internal/memory"
	"github.com/aiox-platform/agentbrain/internal/metrics"
	"github.com/aiox-platform/agentbrain/internal/tools"
	"github.com/aiox-platform/agentbrain/internal/usage"
)

// Agent names the pipeline runs directly.
const (
	GuardrailAgent  = "input_guardrail"
	RewriterAgent   = "rewriter"
	ClassifierAgent = "intent_classifier"
	EnergyAgent     = "energy_only"

	userAgentName = "user"
)

// PipelineAgents are the agents Handle runs itself.
var PipelineAgents = []string{GuardrailAgent, RewriterAgent, ClassifierAgent, EnergyAgent}

// DeniedMessage is returned when the guardrail rejects the input.
const DeniedMessage = "A mensagem está fora das diretrizes do agente. Por favor, tente novamente."

// DefaultStageTimeout bounds each stage when no timeout is configured.
const DefaultStageTimeout = 30 * time.Second

const deniedVerdict = "DENIED"

// Request is one user message entering the pipeline.
type Request struct {
	UserID     string `json:"user_id" validate:"required"`
	SessionID  string `json:"session_id" validate:"required"`
	ClientHash string `json:"client_hash"`
	Message    string `json:"message" validate:"required"`
}

// Response is the pipeline's answer with the total usage flattened in.
type Response struct {
	Response string `json:"response"`
	usage.Record
}

// Result is a finished traversal.
type Result struct {
	Response
	Intent Intent
	Denied bool
	// Stages holds the usage of every stage that ran, by name.
	Stages map[string]usage.Record
}

// Agents runs configured agents by name.
type Agents interface {
	Run(ctx context.Context, name string, in agent.Input) (agent.Result, error)
}

// Retriever searches the knowledge corpus.
type Retriever interface {
	GetSimilar(ctx context.Context, query string, topN int) ([]knowledge.Hit, usage.Record, error)
}

// Flows are the tool branches. Energy questions are answered in-process.
type Flows struct {
	UserManual   tools.Flow
	DeviceAlarms tools.Flow
}

// Options tunes the pipeline.
type Options struct {
	StageTimeout  time.Duration
	KnowledgeTopN int
}

// Orchestrator runs the guardrail, memory, retrieval, classification and
// dispatch stages for one request at a time. It holds no per-request state.
type Orchestrator struct {
	agents    Agents
	retriever Retriever
	flows     Flows
	memories  []memory.Provider
	opts      Options
	tracer    trace.Tracer
}

// New creates an orchestrator. Turns are recorded into memories in the order given.
func New(agents Agents, retriever Retriever, flows Flows, opts Options, memories ...memory.Provider) *Orchestrator {
	if opts.StageTimeout == 0 {
		opts.StageTimeout = DefaultStageTimeout
	}
	if opts.KnowledgeTopN <= 0 {
		opts.KnowledgeTopN = knowledge.DefaultTopN
	}
	return &Orchestrator{
		agents:    agents,
		retriever: retriever,
		flows:     flows,
		memories:  memories,
		opts:      opts,
		tracer:    otel.Tracer("agentbrain/orchestrator"),
	}
}

// Handle runs the pipeline once. A guardrail denial is a normal result, not an error.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (res *Result, err error) {
	ctx, span := o.tracer.Start(ctx, "pipeline")
	defer span.End()

	start := time.Now()
	defer func() {
		outcome := "completed"
		switch {
		case err != nil:
			outcome = "failed"
		case res.Denied:
			outcome = "denied"
		}
		metrics.PipelineRunsTotal.WithLabelValues(outcome).Inc()
		slog.Info("pipeline: finished",
			"outcome", outcome,
			"user_id", req.UserID,
			"session_id", req.SessionID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	session := memory.Session{UserID: req.UserID, SessionID: req.SessionID}
	acc := &usage.Accumulator{}

	// Guardrail.
	var verdict agent.Result
	err = o.runStage(ctx, StageGuardrail, acc, func(ctx context.Context) (usage.Record, error) {
		r, err := o.agents.Run(ctx, GuardrailAgent, agent.Input{Session: session, Message: req.Message})
		verdict = r
		return r.Usage, err
	})
	if err != nil {
		return nil, err
	}
	if strings.ToUpper(strings.TrimSpace(verdict.Response)) == deniedVerdict {
		return finish(DeniedMessage, acc, "", true), nil
	}

	// Record the user turn.
	err = o.runStage(ctx, StageRecordUser, acc, func(ctx context.Context) (usage.Record, error) {
		return o.record(ctx, memory.Turn{
			Session:   session,
			AgentName: userAgentName,
			Role:      memory.RoleUser,
			Content:   req.Message,
		})
	})
	if err != nil {
		return nil, err
	}

	// Rewrite.
	var rewritten string
	err = o.runStage(ctx, StageRewrite, acc, func(ctx context.Context) (usage.Record, error) {
		r, err := o.agents.Run(ctx, RewriterAgent, agent.Input{Session: session, Message: req.Message})
		rewritten = r.Response
		return r.Usage, err
	})
	if err != nil {
		return nil, err
	}

	// Retrieve knowledge candidates for the manual branch.
	var hits []knowledge.Hit
	err = o.runStage(ctx, StageRetrieve, acc, func(ctx context.Context) (usage.Record, error) {
		h, cost, err := o.retriever.GetSimilar(ctx, rewritten, o.opts.KnowledgeTopN)
		hits = h
		return cost, err
	})
	if err != nil {
		return nil, err
	}

	// Classify.
	var cls Classification
	err = o.runStage(ctx, StageClassify, acc, func(ctx context.Context) (usage.Record, error) {
		r, err := o.agents.Run(ctx, ClassifierAgent, agent.Input{Session: session, Message: rewritten})
		if err != nil {
			return usage.Zero, err
		}
		cls = ParseIntent(r.Response)
		return r.Usage, nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IntentsTotal.WithLabelValues(string(cls.Intent)).Inc()
	slog.Info("pipeline: intent classified", "intent", cls.Intent, "confidence", cls.Confidence)

	// Dispatch.
	var answer tools.Response
	var answeredBy string
	err = o.runStage(ctx, StageDispatch, acc, func(ctx context.Context) (usage.Record, error) {
		resp, by, err := o.dispatch(ctx, cls.Intent, req, rewritten, hits)
		answer, answeredBy = resp, by
		return resp.Record, err
	})
	if err != nil {
		return nil, err
	}

	// Record the assistant turn with the branch's cost attached.
	err = o.runStage(ctx, StageRecordAssistant, acc, func(ctx context.Context) (usage.Record, error) {
		return o.record(ctx, memory.Turn{
			Session:   session,
			AgentName: answeredBy,
			Role:      memory.RoleAssistant,
			Content:   answer.Response,
			Usage:     answer.Record,
		})
	})
	if err != nil {
		return nil, err
	}

	return finish(answer.Response, acc, cls.Intent, false), nil
}

// dispatch runs exactly one branch and reports which agent answered.
func (o *Orchestrator) dispatch(ctx context.Context, intent Intent, req Request, rewritten string, hits []knowledge.Hit) (tools.Response, string, error) {
	toolReq := tools.Request{
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		ClientHash: req.ClientHash,
		Message:    rewritten,
	}

	switch intent {
	case IntentUserManual:
		toolReq.Context = knowledge.JoinContent(hits)
		resp, err := o.flows.UserManual.Run(ctx, toolReq)
		return resp, tools.UserManualAgent, err
	case IntentDeviceAlarms:
		resp, err := o.flows.DeviceAlarms.Run(ctx, toolReq)
		return resp, tools.DeviceAlarmsAgent, err
	case IntentEnergyOnly:
		r, err := o.agents.Run(ctx, EnergyAgent, agent.Input{Session: toolReq.Session(), Message: rewritten})
		return tools.Response{Response: r.Response, Record: r.Usage}, EnergyAgent, err
	default:
		return tools.Response{}, "", fmt.Errorf("no branch for intent %q", intent)
	}
}

// record stores turn in every memory tier and returns the storage cost.
func (o *Orchestrator) record(ctx context.Context, turn memory.Turn) (usage.Record, error) {
	total := usage.Zero
	for _, m := range o.memories {
		cost, err := m.Record(ctx, turn)
		if err != nil {
			return usage.Zero, fmt.Errorf("recording %s turn in %s memory: %w", turn.Role, m.Kind(), err)
		}
		total = total.Add(cost)
	}
	return total, nil
}

func finish(text string, acc *usage.Accumulator, intent Intent, denied bool) *Result {
	stages := make(map[string]usage.Record)
	for _, name := range acc.Stages() {
		stages[name] = acc.Stage(name)
	}
	return &Result{
		Response: Response{Response: text, Record: acc.Total()},
		Intent:   intent,
		Denied:   denied,
		Stages:   stages,
	}
}
