// Package agent contains the core orchestrator that drives a hosted
// assistant runtime through complete conversational turns. It lazily
// resolves the assistant and thread, appends user messages, polls run
// state, and dispatches requested tool calls to the local registry,
// feeding their outputs back until the run reaches a terminal state.
package agent
