// Package web3 houses blockchain connectivity utilities for the Monad
// network: the balance reader abstraction consumed by the agent tools, the
// token catalogue mapping symbols to ERC-20 contracts, and formatting helpers
// for on-chain amounts. Concrete RPC clients live in subpackages.
package web3
