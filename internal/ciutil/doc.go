// Package ciutil centralizes environment detection and environment variable
// access used by tests and by startup logging: CI detection, variable
// fallbacks, test database discovery and masking of credentials in logged
// values.
package ciutil
