// Package application provides pumaconf initialization and dependency wiring.
// It resolves the environment source, builds the server settings and writes
// them out, keeping the main package focused on CLI parsing.
package application
