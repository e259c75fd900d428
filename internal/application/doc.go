// Package application provides application initialization and dependency wiring.
// It binds the constants directory once at startup and exposes the bound tree
// through a read-only HTTP server, keeping the main package focused on CLI
// parsing and orchestration.
package application
