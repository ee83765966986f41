// Package manager tracks which model artifacts are installed and keeps them
// current: it resolves the right tier for the host, ensures the artifact is
// present and verified (downloading with bounded backoff when not), records
// install/usage metadata, and enforces the disk retention policy.
//
// Files by concern:
//
//   - manager.go: AutoManager type, construction, resolution and ensure.
//   - metadata.go: the model_metadata.json shapes and (de)serialization.
//   - retention.go: retention enforcement and its background loop.
//   - errors.go: error types and predicates.
//
// Metadata mutation and retention share one mutex, and every metadata write
// is atomic, so readers never observe a half-written file.
package manager
