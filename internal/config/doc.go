// Package config loads, validates, and provides access to bindery
// configuration from TOML files.
//
// Configuration is resolved from an explicit path when given, otherwise from
// ~/.config/bindery/config.toml, then a project-local bindery.toml. A missing
// file is not an error: defaults apply and the resolved path is reported so
// callers can offer to create a sample there.
package config
