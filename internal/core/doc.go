// Package core provides HSN/SAC code validation against master data.
//
// The package has no knowledge of files, databases or HTTP. It can be used by
// web handlers, the CLI, the REPL, or tests without modification.
//
// # Architecture
//
//   - ReferenceTable: an immutable code -> description map plus the set of
//     code lengths present in it. Built by ingest, never edited.
//   - Engine: runs the format, length, existence and hierarchy checks against
//     one table. Stateless and safe for concurrent use.
//   - Service: publishes the current Engine through an atomic pointer, reloads
//     it through an injected Loader, and bounds concurrent bulk jobs with a
//     BulkLimiter.
//
// # Reloading
//
// A reload builds a complete new table and engine before swapping the pointer:
//
//	svc := core.NewService(ingest.Loader(src, opts), core.ServiceConfig{})
//	if err := svc.Reload(ctx); err != nil {
//	    // the previous engine, if any, keeps serving
//	}
//
// Requests already holding the old Engine finish against it.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - REF001-REF004: Reference data not loaded, invalid, or unsupported
//   - FILE001-FILE006: File errors (size, format, encoding, columns)
//   - MAP001: Column mapping errors
//   - SRC001-SRC003: Remote source errors (HTTP, S3, SQL)
//   - BLK001: Too many concurrent bulk jobs
//   - REQ001-REQ002: Malformed or oversized requests
//   - RATE001: Rate limit exceeded
package core
