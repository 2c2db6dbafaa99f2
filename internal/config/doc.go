// Package config defines the projsys configuration and loads it.
//
// Configuration comes from built-in defaults, then configuration files in
// TOML or YAML (later files override earlier ones), then PROJSYS_*
// environment variables. Sources are merged as maps by the loader package
// and decoded into Config at the end.
//
// Example projsys.toml:
//
//	[logging]
//	level = "debug"
//
//	[telemetry]
//	exporter = "log"
//	hashSalt = "team-salt"
//
//	[[dimensions]]
//	name = "Flavor"
//	property = "Flavors"
//	sensitive = true
//	editable = true
//
//	[watch]
//	enabled = true
//	debounce = "250ms"
package config
