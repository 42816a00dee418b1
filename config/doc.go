// Package config loads the process-wide configuration and secret record: a
// YAML file split into a cleartext section and an encrypted section, the
// latter decrypted on demand with a process-local key loaded from a fixed
// keyfile path. Config is one of the two process-wide globals the engine
// permits — initialized once at process start, immutable thereafter.
package config
