// Package config loads goeda settings from a YAML file, .env files and the
// environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment
// variables, command line flags.
package config
