// Package diag defines the diagnostic model shared by the compiler passes.
//
// Producers emit a Diagnostic through a Reporter (usually a BagReporter),
// consumers read the Bag after sorting it. Rendering lives in
// internal/diagfmt; this package performs no IO.
//
// Codes are grouped in ranges: 1000 capability, 2000 unsupported constructs,
// 3000 evaluation, 4000 output recording, 5000 driver.
package diag
