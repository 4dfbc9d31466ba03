// Package logbook reconstructs a typed logbook table from the table geometry
// an external document-analysis engine reports for a scanned logbook page.
//
// This package holds the reconstruction logic only. It does no I/O and keeps
// no state between calls, so web handlers, the CLI and tests all drive it the
// same way.
//
// # Pipeline
//
// [Reconstructor.Reconstruct] runs the stages in order:
//
//  1. Reorder: the segment holding a "DATE" cell moves to the front, since it
//     anchors column 0 of the logical table ([ReorderTablesByDate]).
//  2. Filter: boilerplate segments and rows (certification text, totals,
//     amounts forwarded) are dropped ([ShouldSkipTable], [ShouldSkipRow]).
//  3. Headers: each segment's leading header rows are merged into one header
//     mapping, spanning cells are replicated, and a running column offset
//     places side-by-side segments into one global column space.
//  4. Rows: data rows from different segments sharing a row position are
//     merged and renumbered 1..N.
//  5. Canonical headers: header values are mapped through the alias table.
//  6. Correction: each header column gets a [rules.ColumnType] and data
//     values are corrected for confusable OCR glyphs.
//
// [BuildResponse] then shapes the rows for the external boundary.
//
// # Error Handling
//
// Reconstruction never fails. Blank content, missing headers and malformed
// cells are skipped. Errors from the surrounding layers (payload decoding,
// object storage, OCR) are mapped to coded user messages by [MapError]:
//
//   - PAY001-PAY004: payload errors (invalid JSON, empty, too large, unknown format)
//   - SRC001-SRC003: payload source errors (object storage, local files)
//   - OCR001-OCR002: page image rescan errors
//   - RUL001: rules file errors
//   - SCAN001, REQ001-REQ002, RATE001: capacity and request lifecycle
package logbook
