package agent

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/agentrouter/agent/skills"
	"github.com/BaSui01/agentrouter/types"
)

const instrumentationName = "github.com/BaSui01/agentrouter/agent"

// Orchestrator replies.
const (
	ReplyNoSubAgents = "No sub-agents available for task delegation."
	ReplyNoMatch     = "No suitable agent found for this request."
)

// Delegation outcomes reported to metrics.
const (
	OutcomeDelegated   = "delegated"
	OutcomeNoMatch     = "no_match"
	OutcomeNoSubAgents = "no_sub_agents"
)

// ActivityRecorder 记录一次成功的委派
type ActivityRecorder interface {
	RecordDelegation(ctx context.Context, agentID, agentName, content string) error
}

// DelegationMetrics 统计委派结果
type DelegationMetrics interface {
	RecordDelegation(agentName, outcome string)
}

// Delegation is the outcome of Orchestrator.Process.
type Delegation struct {
	Response  string `json:"response"`
	AgentID   string `json:"agent_id,omitempty"`
	AgentUsed string `json:"agent_used,omitempty"`
}

// Delegated reports whether a sub-agent handled the message.
func (d Delegation) Delegated() bool { return d.AgentID != "" }

// UsedBy returns the answering sub-agent's name, or nil when the main
// agent replied itself.
func (d Delegation) UsedBy() *string {
	if !d.Delegated() {
		return nil
	}
	name := d.AgentUsed
	return &name
}

// Orchestrator is the main agent: it picks a sub-agent by integer skill
// hit count and forwards the message to it.
type Orchestrator struct {
	registry *Registry
	activity ActivityRecorder
	metrics  DelegationMetrics
	tracer   trace.Tracer
	meter    metric.Meter
	counter  metric.Int64Counter
	logger   *zap.Logger
}

// OrchestratorOption 配置 Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithActivity records every delegation.
func WithActivity(rec ActivityRecorder) OrchestratorOption {
	return func(o *Orchestrator) { o.activity = rec }
}

// WithDelegationMetrics counts delegation outcomes.
func WithDelegationMetrics(m DelegationMetrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) OrchestratorOption {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithMeter overrides the global meter that receives the
// agentrouter.delegations counter.
func WithMeter(m metric.Meter) OrchestratorOption {
	return func(o *Orchestrator) { o.meter = m }
}

// NewOrchestrator creates the main agent runtime over registry.
func NewOrchestrator(registry *Registry, logger *zap.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		registry: registry,
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
		logger:   logger.With(zap.String("component", "orchestrator")),
	}
	for _, opt := range opts {
		opt(o)
	}

	counter, err := o.meter.Int64Counter("agentrouter.delegations",
		metric.WithDescription("Messages handled by the main agent, by outcome"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		o.logger.Warn("delegation counter unavailable", zap.Error(err))
	}
	o.counter = counter
	return o
}

// Agent returns the main agent record.
func (o *Orchestrator) Agent() *Agent {
	return o.registry.Main()
}

// Registry returns the backing registry.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// FindBest returns the sub-agent with the most skills contained in
// request. Ties keep the earlier registration.
func (o *Orchestrator) FindBest(request string) (*Agent, int) {
	var (
		best      *Agent
		bestScore int
	)
	for _, a := range o.registry.SubAgents() {
		score := skills.CountMatches(request, a.def.Skills)
		if score > bestScore {
			best, bestScore = a, score
		}
	}
	return best, bestScore
}

// Process delegates msg to the best sub-agent. Only context errors are
// returned; "no agent" outcomes are ordinary replies.
func (o *Orchestrator) Process(ctx context.Context, msg types.Message) (Delegation, error) {
	if err := ctx.Err(); err != nil {
		return Delegation{}, err
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.process",
		trace.WithAttributes(
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", string(msg.MessageType)),
		),
	)
	defer span.End()

	subs := o.registry.SubAgents()
	if len(subs) == 0 {
		o.observe(ctx, "", OutcomeNoSubAgents)
		span.SetStatus(codes.Ok, OutcomeNoSubAgents)
		return Delegation{Response: ReplyNoSubAgents}, nil
	}

	best, score := o.FindBest(msg.Content)
	if best == nil {
		o.observe(ctx, "", OutcomeNoMatch)
		span.SetStatus(codes.Ok, OutcomeNoMatch)
		o.logger.Debug("no agent matched", zap.String("message_id", msg.ID))
		return Delegation{Response: ReplyNoMatch}, nil
	}

	span.SetAttributes(
		attribute.String("agent.id", best.ID()),
		attribute.Int("agent.score", score),
	)

	d := Delegation{
		Response:  best.Respond(msg),
		AgentID:   best.ID(),
		AgentUsed: best.Name(),
	}

	if o.activity != nil {
		if err := o.activity.RecordDelegation(ctx, best.ID(), best.Name(), msg.Content); err != nil {
			span.RecordError(err)
			o.logger.Warn("failed to record activity",
				zap.String("agent_id", best.ID()),
				zap.Error(err),
			)
		}
	}
	o.observe(ctx, best.Name(), OutcomeDelegated)

	o.logger.Debug("message delegated",
		zap.String("message_id", msg.ID),
		zap.String("agent_id", best.ID()),
		zap.Int("score", score),
	)
	return d, nil
}

func (o *Orchestrator) observe(ctx context.Context, agentName, outcome string) {
	if o.metrics != nil {
		o.metrics.RecordDelegation(agentName, outcome)
	}
	if o.counter != nil {
		o.counter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.String("agent", agentName),
		))
	}
}
