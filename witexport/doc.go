// Package witexport projects bridge schemas onto WebAssembly Interface
// Types so bridged data classes can be shared with component tooling.
//
// Only data shapes have a projection: classes become records, enums become
// enums, arrays become lists and optional values become options. Interface
// classes, callables, maps and untyped values are reported as unsupported.
package witexport
