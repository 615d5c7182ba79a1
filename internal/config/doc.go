// Package config provides typed configuration for rewind.
//
// Values are resolved in three layers, later layers overriding earlier:
//
//  1. Built-in defaults (Default)
//  2. A TOML file, usually rewind.toml
//  3. REWIND_* environment variables
//
// A typical file:
//
//	[logging]
//	level = "debug"
//	prefix = "rewind"
//
//	[script]
//	timeout = "5s"
//	call_limit = 100000
//
//	[output]
//	format = "json"
//	color = false
//
//	[watch]
//	debounce = "200ms"
package config
