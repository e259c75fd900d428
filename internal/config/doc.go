// Package config resolves the runtime settings of the constants server from
// an optional YAML settings file, environment variables and CLI flags, with
// precedence CLI flags > environment variables > YAML file > defaults.
//
// These settings describe the host process (where the constants live, which
// name they are bound to, how the server listens). The constants themselves
// are loaded by package registry.
package config
