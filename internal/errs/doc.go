// Package errs defines the error taxonomy shared by the tree, instantiation,
// serialization and config-generation layers.
//
// Every error type carries enough context (the offending path, tag or field)
// for a caller to diagnose a bad state document without re-tracing the walk.
// All types are plain structs usable with errors.As.
package errs
