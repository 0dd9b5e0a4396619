// Package core runs the packing list pipeline independent of any transport.
// It is used by the HTTP server and the packlist CLI alike.
//
// # Pipeline
//
//  1. [Service.ParsePackingList] normalizes an uploaded spreadsheet
//  2. [Service.Submit] runs the form generator once per batch, bounded by
//     the [GenerationLimiter]
//  3. The output directory is reconciled against the items and the result
//     is kept as a [Submission]
//  4. [Service.Reconcile] re-scans and re-matches a stored submission
//     without running the generator again
//
// Submissions live in memory only. The retention sweep started by
// [Service.StartRetentionSweeper] evicts old submissions and deletes their
// artifacts.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - PARSE001-PARSE002: header and column detection
//   - FILE001-FILE006: upload size, format and decoding
//   - GEN001-GEN003: generator availability and empty output
//   - SUB001-SUB003: unknown or malformed submissions
//   - UPL002, UPL004, UPL005, RATE001: capacity and cancellation
//
// # Audit Logging
//
// Every parse, submission and reconciliation is recorded in a bounded
// in-memory audit trail with severity levels:
//
//   - Low: Packing list parsed
//   - Medium: Submission generated or reconciled
//   - High: Any failure, and submissions that fell back to the sample
package core
