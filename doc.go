// Package engine provides a dependency-driven plan orchestrator.
//
// A plan is a compiled graph of typed concepts and inferences: declarative
// steps that read value concepts through a capability bundle called the
// Body (LLMs, filesystem, scripts, prompts) and write one output concept
// each. The orchestrator repeatedly fires inferences whose inputs are
// satisfied until every final concept is complete, persisting a checkpoint
// after every cycle so a run can be paused, resumed, or forked.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/plandrive/engine/cmd/orchestrator@latest
//
// Deploy a plan package and start a run:
//
//	orchestrator deploy plan.zip
//	orchestrator run --plan-id <id> --input signals.json
//
// Or host many runs behind the REST/WS server:
//
//	orchestrator serve --config server.yaml
//
// # Using as a Go library
//
// The core packages are importable independently of the CLI:
//
//	import (
//	    "github.com/plandrive/engine/reference"
//	    "github.com/plandrive/engine/blackboard"
//	    "github.com/plandrive/engine/orchestrator"
//	    "github.com/plandrive/engine/runhost"
//	)
//
// # Architecture
//
//	Plan package → Repositories → Blackboard → Orchestrator loop → Sequences → Body
//
// Repositories hold the immutable concept/inference catalog loaded from a
// plan package. The Blackboard is the per-run mutable state: concept
// references, inference statuses, and the support graph. The orchestrator
// loop scans a flow-index-ordered waitlist each cycle, dispatching ready
// inferences to the sequence pipeline named by their type. The Run Host
// wraps one Blackboard and orchestrator per run with a SQLite checkpoint
// store, and the deployment server hosts many runs concurrently.
//
// # Status
//
// Pre-1.0; configuration and package layout may still change.
package engine
