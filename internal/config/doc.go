// Package config resolves gensec-template settings.
//
// Settings come from four places, lowest priority first: built-in defaults, the
// YAML config file (~/.config/gensec-template/config.yaml), environment variables
// and command line flags. A config file that cannot be read or parsed is reported
// as a warning and ignored.
package config
