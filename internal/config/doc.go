// Package config provides centralized configuration management for the Monad
// agent runtime. Configuration is loaded from a single JSON file with sane
// defaults applied for every omitted section, so a minimal file only needs the
// assistant API key and an RPC endpoint.
package config
