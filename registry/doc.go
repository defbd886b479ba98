// Package registry memoizes schema registration and resolution.
//
// An Entry is static metadata emitted next to a bridged type: its
// template, its dependencies and, for generic instantiations, its type
// arguments. A Registry belongs to one bridge and turns entries into
// resolved schemas exactly once. Lookups after resolution take no lock.
//
// Dependencies may form cycles. An entry being resolved is treated as
// resolved by its dependents, and a failed resolution rolls back so the
// next call retries.
package registry
