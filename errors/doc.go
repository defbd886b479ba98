// Package errors provides structured error types for the marshalling bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go/schema type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseUnmarshal, errors.KindTypeMismatch).
//		Path("card", "width").
//		GoType("float64").
//		SchemaType("double").
//		Detail("cannot convert string to double").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidEnum(errors.PhaseMarshal, path, 7, "Status")
//	err := errors.Deallocated("method add")
//
// Calls on released native objects fail with KindDeallocated; the message
// always contains "object was deallocated".
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
