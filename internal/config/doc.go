// Package config loads the pumaconf tool configuration from multiple sources
// (YAML files, environment variables, CLI flags) with precedence: CLI flags >
// YAML config > Environment variables > Defaults. The OPENSHIFT_RUBY_*
// variables describing the gear are not read here; see package settings.
package config
