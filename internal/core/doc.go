// Package core holds the inventory domain: users, locations, items and the
// spreadsheet import that fills them. It has no HTTP dependencies and is
// used by the web handlers and the admin CLI alike.
//
// # Import
//
// [RunImport] reads a [RowSource] (CSV or XLSX) row by row:
//
//  1. The header must contain ItemName and ItemLocation, otherwise the run
//     stops with a [MissingColumnsError] before any row is read.
//  2. Each row's location name is resolved by a [LocationResolver], which
//     reuses an existing location of the same name or creates one.
//  3. [NormalizeRow] turns the row into an [Item]; blank names fail the row,
//     unparseable dates and box numbers are silently dropped.
//  4. The item is inserted. Failures are recorded per row and the run goes on.
//
// Nothing is rolled back: a run that stops early leaves every committed row
// in place. [Inventory.Import] wraps a run with the process-wide
// [ImportLimiter], a trace span and an [EventImportCompleted] event.
//
// # Ownership
//
// All owner-scoped access goes through an [Inventory], obtained with
// [Service.For]. It holds a store.Scoped handle, so no method can reach
// another user's records.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with support codes by
// [MapError].
package core
