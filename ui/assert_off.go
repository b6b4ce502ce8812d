//go:build !splashassert

package ui

// debugAsserts controls whether contract violations panic. Release
// builds log them and carry on.
const debugAsserts = false
