// Copyright 2024 AgentRouter Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package agent provides the handler records, registry and main-agent
orchestration for agentrouter.

# Overview

A request enters through the main agent. The Orchestrator counts how many
of each sub-agent's skill tags occur in the request text and forwards the
message to the highest count, keeping the earlier registration on ties.
Each sub-agent answers with a fixed, labelled acknowledgement.

	┌──────────────────────────────────────────────┐
	│           Orchestrator (main agent)          │
	│      CountMatches over every sub-agent       │
	├──────────────────────────────────────────────┤
	│                   Registry                   │
	│  main-agent-001, sub-agent-001 .. 008        │
	├──────────────────────────────────────────────┤
	│   ActivityRecorder   │   DelegationMetrics   │
	└──────────────────────────────────────────────┘

# Agents

An Agent is immutable apart from its Status (active, inactive, busy).
Status is informational and never changes routing.

# Usage

	registry := agent.NewDefaultRegistry(logger)
	orch := agent.NewOrchestrator(registry, logger,
		agent.WithActivity(tracker),
		agent.WithDelegationMetrics(collector),
	)
	d, err := orch.Process(ctx, types.NewMessage("build a react page"))
*/
package agent
