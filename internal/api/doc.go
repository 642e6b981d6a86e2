// Package api exposes the REST surface for the agent: synchronous
// question answering, asynchronous chat job submission and lookup, and
// conversation history retrieval.
package api
