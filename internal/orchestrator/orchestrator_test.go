package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiox-platform/agentbrain/internal/agent"
	"github.com/aiox-platform/agentbrain/internal/embedding"
	"github.com/aiox-platform/agentbrain/internal/knowledge"
	"github.com/aiox-platform/agentbrain/internal/llm"
	"github.com/aiox-platform/agentbrain/internal/memory"
	"github.com/aiox-platform/agentbrain/internal/tools"
	"github.com/aiox-platform/agentbrain/internal/usage"
)

var (
	guardCost    = usage.FromTokens(40, 1, 0.000008)
	rewriteCost  = usage.FromTokens(120, 15, 0.000027)
	searchCost   = usage.FromTokens(9, 0, 0.00000018)
	classifyCost = usage.FromTokens(90, 12, 0.0000207)
	energyCost   = usage.FromTokens(400, 80, 0.000108)
	embedCost    = usage.FromTokens(11, 0, 0.00000022)
)

// scriptedAgents answers each agent name with a fixed result.
type scriptedAgents struct {
	mu      sync.Mutex
	results map[string]agent.Result
	errs    map[string]error
	block   map[string]bool
	calls   []string
	inputs  map[string]agent.Input
}

func (s *scriptedAgents) Run(ctx context.Context, name string, in agent.Input) (agent.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	if s.inputs == nil {
		s.inputs = map[string]agent.Input{}
	}
	s.inputs[name] = in
	s.mu.Unlock()

	if s.block[name] {
		<-ctx.Done()
		return agent.Result{}, ctx.Err()
	}
	if err := s.errs[name]; err != nil {
		return agent.Result{}, err
	}
	res, ok := s.results[name]
	if !ok {
		return agent.Result{}, agent.ErrUnknownAgent
	}
	return res, nil
}

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(context.Context, string) (embedding.Result, error) {
	return embedding.Result{Vector: []float32{1, 0, 0}, Usage: embedCost}, nil
}

type entryLog struct {
	mu      sync.Mutex
	entries []memory.Entry
}

func (l *entryLog) Insert(_ context.Context, e *memory.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.ID = int64(len(l.entries) + 1)
	l.entries = append(l.entries, *e)
	return nil
}

func (l *entryLog) SearchByUser(context.Context, string, []float32, int) ([]memory.Hit, error) {
	return []memory.Hit{}, nil
}

type fakeRetriever struct {
	hits  []knowledge.Hit
	query string
	topN  int
}

func (f *fakeRetriever) GetSimilar(_ context.Context, query string, topN int) ([]knowledge.Hit, usage.Record, error) {
	f.query, f.topN = query, topN
	return f.hits, searchCost, nil
}

type fakeFlow struct {
	resp tools.Response
	got  *tools.Request
}

func (f *fakeFlow) Run(_ context.Context, req tools.Request) (tools.Response, error) {
	f.got = &req
	return f.resp, nil
}

type fixture struct {
	orch      *Orchestrator
	agents    *scriptedAgents
	retriever *fakeRetriever
	manual    *fakeFlow
	alarms    *fakeFlow
	redis     *miniredis.Miniredis
	ephemeral *memory.Ephemeral
	semantic  *entryLog
}

func newFixture(t *testing.T, classifier string) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	eph := memory.NewEphemeral(rdb, 10, memory.DefaultTTL)
	log := &entryLog{}
	sem := memory.NewSemantic(fixedEmbedder{}, log, 3)

	agents := &scriptedAgents{results: map[string]agent.Result{
		GuardrailAgent:  {Response: "ALLOWED", Usage: guardCost},
		RewriterAgent:   {Response: "Qual o histórico de geração de energia de hoje?", Usage: rewriteCost},
		ClassifierAgent: {Response: classifier, Usage: classifyCost},
		EnergyAgent:     {Response: "Hoje foram gerados 12 MWh.", Usage: energyCost},
	}}
	retriever := &fakeRetriever{hits: []knowledge.Hit{{Content: "trecho 1"}, {Content: "trecho 2"}}}
	manual := &fakeFlow{resp: tools.Response{Response: "Consulte a seção 3.", Record: usage.FromTokens(300, 40, 0.00007)}}
	alarms := &fakeFlow{resp: tools.Response{Response: "Alarmes encontrados", Record: usage.FromTokens(150, 20, 0.00003)}}

	orch := New(agents, retriever, Flows{UserManual: manual, DeviceAlarms: alarms}, Options{StageTimeout: time.Second, KnowledgeTopN: 5}, eph, sem)
	return &fixture{
		orch:      orch,
		agents:    agents,
		retriever: retriever,
		manual:    manual,
		alarms:    alarms,
		redis:     mr,
		ephemeral: eph,
		semantic:  log,
	}
}

var energyQuestion = Request{UserID: "u1", SessionID: "s1", ClientHash: "c1", Message: "Qual o histórico de energia hoje?"}

func TestHandle_EnergyOnlyEndToEnd(t *testing.T) {
	f := newFixture(t, `{"intent": "energy_only", "confidence": 0.93}`)

	res, err := f.orch.Handle(context.Background(), energyQuestion)
	require.NoError(t, err)

	assert.Equal(t, "Hoje foram gerados 12 MWh.", res.Response.Response)
	assert.Equal(t, IntentEnergyOnly, res.Intent)
	assert.False(t, res.Denied)

	want := usage.Merge(guardCost, embedCost, rewriteCost, searchCost, classifyCost, energyCost, embedCost)
	assert.Equal(t, want.TokensPrompt, res.TokensPrompt)
	assert.Equal(t, want.TokensCompletion, res.TokensCompletion)
	assert.Equal(t, want.TokensTotal, res.TokensTotal)
	assert.InDelta(t, want.CostUSD, res.CostUSD, 1e-15)

	assert.Equal(t, energyCost, res.Stages[StageDispatch])
	assert.Equal(t, embedCost, res.Stages[StageRecordAssistant])
	assert.Equal(t, []string{GuardrailAgent, RewriterAgent, ClassifierAgent, EnergyAgent}, f.agents.calls)

	// The rewritten query drives retrieval, classification and the branch.
	assert.Equal(t, "Qual o histórico de geração de energia de hoje?", f.retriever.query)
	assert.Equal(t, 5, f.retriever.topN)
	assert.Equal(t, "Qual o histórico de geração de energia de hoje?", f.agents.inputs[EnergyAgent].Message)
	assert.Equal(t, energyQuestion.Message, f.agents.inputs[RewriterAgent].Message)

	// Both tiers hold the user and assistant turns.
	msgs, err := f.ephemeral.Read(context.Background(), memory.Session{UserID: "u1", SessionID: "s1"}, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, memory.RoleUser, msgs[0].Role)
	assert.Equal(t, energyQuestion.Message, msgs[0].Content)
	assert.Equal(t, memory.RoleAssistant, msgs[1].Role)

	require.Len(t, f.semantic.entries, 2)
	assert.Equal(t, "user", f.semantic.entries[0].AgentName)
	assert.Equal(t, embedCost, f.semantic.entries[0].Usage)
	assert.Equal(t, EnergyAgent, f.semantic.entries[1].AgentName)
	assert.Equal(t, usage.Merge(energyCost, embedCost), f.semantic.entries[1].Usage)
}

func TestHandle_GuardrailDenial(t *testing.T) {
	f := newFixture(t, "energy_only")
	f.agents.results[GuardrailAgent] = agent.Result{Response: " denied\n", Usage: guardCost}
	before := f.redis.Keys()

	res, err := f.orch.Handle(context.Background(), energyQuestion)
	require.NoError(t, err)

	assert.True(t, res.Denied)
	assert.Equal(t, DeniedMessage, res.Response.Response)
	assert.Equal(t, guardCost, res.Record)
	assert.Equal(t, []string{GuardrailAgent}, f.agents.calls)

	assert.Equal(t, before, f.redis.Keys())
	assert.Empty(t, f.semantic.entries)
	assert.Empty(t, f.retriever.query)
}

func TestHandle_UserManualGetsKnowledgeContext(t *testing.T) {
	f := newFixture(t, "```json\n{\"intent\": \"user_manual\", \"confidence\": 0.8}\n```")

	res, err := f.orch.Handle(context.Background(), energyQuestion)
	require.NoError(t, err)

	require.NotNil(t, f.manual.got)
	assert.Equal(t, "trecho 1\n\ntrecho 2", f.manual.got.Context)
	assert.Equal(t, "Qual o histórico de geração de energia de hoje?", f.manual.got.Message)
	assert.Equal(t, "c1", f.manual.got.ClientHash)
	assert.Nil(t, f.alarms.got)

	assert.Equal(t, IntentUserManual, res.Intent)
	assert.Equal(t, "Consulte a seção 3.", res.Response.Response)
	assert.Equal(t, tools.UserManualAgent, f.semantic.entries[1].AgentName)

	want := usage.Merge(guardCost, embedCost, rewriteCost, searchCost, classifyCost, f.manual.resp.Record, embedCost)
	assert.InDelta(t, want.CostUSD, res.CostUSD, 1e-15)
	assert.Equal(t, want.TokensTotal, res.TokensTotal)
}

func TestHandle_DeviceAlarmsGetsNoContext(t *testing.T) {
	f := newFixture(t, `{"intent": "device_alarms", "confidence": 0.7}`)

	res, err := f.orch.Handle(context.Background(), energyQuestion)
	require.NoError(t, err)

	require.NotNil(t, f.alarms.got)
	assert.Empty(t, f.alarms.got.Context)
	assert.Nil(t, f.manual.got)
	assert.Equal(t, IntentDeviceAlarms, res.Intent)
	assert.Equal(t, "Alarmes encontrados", res.Response.Response)
}

func TestHandle_UnknownIntentFallsBackToEnergy(t *testing.T) {
	f := newFixture(t, `{"intent": "weather", "confidence": 0.99}`)

	res, err := f.orch.Handle(context.Background(), energyQuestion)
	require.NoError(t, err)
	assert.Equal(t, IntentEnergyOnly, res.Intent)
	assert.Contains(t, f.agents.calls, EnergyAgent)
}

func TestHandle_StageTimeout(t *testing.T) {
	f := newFixture(t, "energy_only")
	f.agents.block = map[string]bool{RewriterAgent: true}
	f.orch.opts.StageTimeout = 20 * time.Millisecond

	_, err := f.orch.Handle(context.Background(), energyQuestion)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStageTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var te *StageTimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StageRewrite, te.Stage)
}

func TestHandle_ModelErrorPropagates(t *testing.T) {
	f := newFixture(t, "energy_only")
	f.agents.errs = map[string]error{GuardrailAgent: &llm.ModelCallError{Provider: "openai", Model: "gpt-4o-mini", Err: errors.New("503")}}

	_, err := f.orch.Handle(context.Background(), energyQuestion)
	assert.ErrorIs(t, err, llm.ErrModelCall)
	assert.Empty(t, f.semantic.entries)
}

func TestHandle_StoreUnavailableFailsRequest(t *testing.T) {
	f := newFixture(t, "energy_only")
	f.redis.Close()

	_, err := f.orch.Handle(context.Background(), energyQuestion)
	assert.ErrorIs(t, err, memory.ErrStoreUnavailable)
}
