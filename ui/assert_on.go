//go:build splashassert

package ui

// Build with -tags splashassert to turn contract violations into
// panics during development.
const debugAsserts = true
