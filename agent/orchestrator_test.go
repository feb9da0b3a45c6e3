package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/BaSui01/agentrouter/types"
)

// MockActivity 模拟活动记录器
type MockActivity struct {
	mock.Mock
}

func (m *MockActivity) RecordDelegation(ctx context.Context, agentID, agentName, content string) error {
	args := m.Called(ctx, agentID, agentName, content)
	return args.Error(0)
}

// MockDelegationMetrics 模拟指标收集器
type MockDelegationMetrics struct {
	mock.Mock
}

func (m *MockDelegationMetrics) RecordDelegation(agentName, outcome string) {
	m.Called(agentName, outcome)
}

func TestOrchestrator_Process_Delegates(t *testing.T) {
	content := "build a react page with tailwind"

	act := new(MockActivity)
	act.On("RecordDelegation", mock.Anything, "sub-agent-001", "Frontend Tasks Agent", content).Return(nil)
	met := new(MockDelegationMetrics)
	met.On("RecordDelegation", "Frontend Tasks Agent", OutcomeDelegated).Return()

	o := NewOrchestrator(NewDefaultRegistry(zap.NewNop()), zap.NewNop(),
		WithActivity(act),
		WithDelegationMetrics(met),
	)

	d, err := o.Process(context.Background(), types.NewMessage(content))
	require.NoError(t, err)

	assert.True(t, d.Delegated())
	assert.Equal(t, "sub-agent-001", d.AgentID)
	assert.Equal(t, "Frontend Tasks Agent", d.AgentUsed)
	require.NotNil(t, d.UsedBy())
	assert.Equal(t, "Frontend Tasks Agent", *d.UsedBy())
	assert.Equal(t, "[Frontend Agent] Processing frontend request: build a react page with tailwind...", d.Response)

	act.AssertExpectations(t)
	met.AssertExpectations(t)
}

func TestOrchestrator_Process_NoMatch(t *testing.T) {
	met := new(MockDelegationMetrics)
	met.On("RecordDelegation", "", OutcomeNoMatch).Return()

	o := NewOrchestrator(NewDefaultRegistry(zap.NewNop()), nil, WithDelegationMetrics(met))

	d, err := o.Process(context.Background(), types.NewMessage("hello there"))
	require.NoError(t, err)
	assert.False(t, d.Delegated())
	assert.Equal(t, ReplyNoMatch, d.Response)
	assert.Empty(t, d.AgentUsed)
	assert.Nil(t, d.UsedBy())
	met.AssertExpectations(t)
}

func TestOrchestrator_Process_NoSubAgents(t *testing.T) {
	r := NewRegistry(NewMainAgent(MainAgentID, MainAgentName, ""), zap.NewNop())
	o := NewOrchestrator(r, zap.NewNop())

	d, err := o.Process(context.Background(), types.NewMessage("build a react page"))
	require.NoError(t, err)
	assert.Equal(t, ReplyNoSubAgents, d.Response)
}

func TestOrchestrator_TieKeepsFirstRegistered(t *testing.T) {
	o := NewOrchestrator(NewDefaultRegistry(zap.NewNop()), zap.NewNop())

	// "ui" is a skill of both the frontend and chat UI agents
	best, score := o.FindBest("fix the ui")
	require.NotNil(t, best)
	assert.Equal(t, "sub-agent-001", best.ID())
	assert.Equal(t, 1, score)
}

func TestOrchestrator_StatusDoesNotAffectRouting(t *testing.T) {
	r := NewDefaultRegistry(zap.NewNop())
	_, err := r.SetStatus("sub-agent-001", string(StatusInactive))
	require.NoError(t, err)

	d, err := NewOrchestrator(r, zap.NewNop()).Process(context.Background(), types.NewMessage("build a react page"))
	require.NoError(t, err)
	assert.Equal(t, "sub-agent-001", d.AgentID)
}

func TestOrchestrator_ActivityFailureIsNotFatal(t *testing.T) {
	act := new(MockActivity)
	act.On("RecordDelegation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("redis down"))

	o := NewOrchestrator(NewDefaultRegistry(zap.NewNop()), zap.NewNop(), WithActivity(act))

	d, err := o.Process(context.Background(), types.NewMessage("write sql migration"))
	require.NoError(t, err)
	assert.True(t, d.Delegated())
	act.AssertExpectations(t)
}

func TestOrchestrator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOrchestrator(NewDefaultRegistry(zap.NewNop()), zap.NewNop()).
		Process(ctx, types.NewMessage("build a react page"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOrchestrator_RecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	o := NewOrchestrator(NewDefaultRegistry(zap.NewNop()), zap.NewNop(), WithTracer(tp.Tracer("test")))

	_, err := o.Process(context.Background(), types.NewMessage("deploy with docker"))
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "orchestrator.process", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("agent.id", "sub-agent-008"))
}

func TestOrchestrator_CountsDelegations(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	o := NewOrchestrator(NewDefaultRegistry(zap.NewNop()), zap.NewNop(), WithMeter(mp.Meter("test")))
	ctx := context.Background()

	d, err := o.Process(ctx, types.NewMessage("deploy with docker"))
	require.NoError(t, err)
	require.True(t, d.Delegated())
	_, err = o.Process(ctx, types.NewMessage("hello there"))
	require.NoError(t, err)
	_, err = o.Process(ctx, types.NewMessage("hello there"))
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "agentrouter.delegations" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value("outcome")
				agent, _ := dp.Attributes.Value("agent")
				counts[outcome.AsString()+"/"+agent.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{
		OutcomeDelegated + "/" + d.AgentUsed: 1,
		OutcomeNoMatch + "/":                 2,
	}, counts)
}
