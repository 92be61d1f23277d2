// Package config loads buffercore settings from defaults, an optional TOML
// or YAML file, an optional .env file and the environment.
//
// Sources are merged in increasing priority:
//
//  1. Built-in defaults
//  2. The configuration file (.toml, .yaml or .yml); a missing file is skipped
//  3. A .env file set with WithDotEnv; a missing file is skipped
//  4. Environment variables prefixed with BUFFERCORE_
//
// A file looks like:
//
//	[patch]
//	merge_adjacent_changes = true
//
//	[markers]
//	seed = 0
//
//	[log]
//	level = "info"
//
// Values are read by dot-separated path (GetBool("patch.merge_adjacent_changes"))
// or all at once through Settings, which validates them.
package config
