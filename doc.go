// Package marshalbridge moves typed values between native Go code and a
// dynamically typed script runtime.
//
// Generated or hand-written bindings describe each bridged type with a
// schema template. A bridge context resolves those templates once, then
// converts values in both directions, keeps proxy objects for native
// interface implementations and adapts callables so either side can call
// the other.
//
// # Architecture Overview
//
//	marshalbridge/
//	├── errors/        Structured error types with phase, kind and path
//	├── schema/        Value schemas, template grammar, schema table, resolver
//	├── value/         Boundary values exchanged with the script runtime
//	├── registry/      Memoized registration and resolution of schema entries
//	├── proxy/         Proxy object store with weak references
//	├── marshal/       Bridge context and typed converters
//	├── module/        Native module factories and script export resolution
//	├── manifest/      YAML type manifests
//	├── witexport/     WIT projection of resolved data classes
//	└── cmd/bridgectl/ Schema and manifest inspection tool
//
// # Quick Start
//
// Describe a model and convert it:
//
//	var cardEntry = registry.NewEntry("c 'Card'{'title': s, 'width': d}", nil)
//
//	var cardConverter = marshal.Model(cardEntry,
//	    marshal.FieldOf("title", marshal.String, func(c *Card) *string { return &c.Title }),
//	    marshal.FieldOf("width", marshal.Float64, func(c *Card) *float64 { return &c.Width }),
//	)
//
//	c := marshal.NewContext()
//	v, err := marshal.To(c, cardConverter, Card{Title: "Hello", Width: 120})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	card, err := marshal.From(c, cardConverter, v)
package marshalbridge
