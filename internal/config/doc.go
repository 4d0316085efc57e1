// Package config loads runtime settings of the configuration service (listen
// port, timeouts, rate limits, log level and the paths of the site base files)
// from YAML files, environment variables and CLI flags with precedence:
// CLI flags > Environment variables > YAML config > Defaults.
//
// The site configuration itself is resolved by package siteconfig.
package config
