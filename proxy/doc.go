// Package proxy keeps the identity of native objects that cross the
// boundary.
//
// Native interface implementations embed Object. The Store maps each
// native object to the proxy object handed to the script runtime and back,
// holding both sides weakly: the native object lives as long as native
// code holds it, and the proxy as long as the script runtime does.
package proxy
