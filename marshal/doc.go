// Package marshal converts native Go values to and from boundary values.
//
// Conversion is driven by typed converters chosen at compile time rather
// than by reflection. Each native shape has a converter:
//
//	Bool, Int32, Int64, Float64, String   scalars
//	Optional(conv)                         *T, nil <-> undefined
//	Slice(conv)                            []T <-> array
//	IntEnum / StringEnum                   enums validated against their schema
//	Model(entry, fields...)                structs <-> typed objects
//	Interface(entry, newProxy, methods...) interface instances <-> proxy objects
//	Func0..Func3, Proc0..Proc2             functions <-> boundary callables
//
// A Context carries the schema registry and proxy store of one bridge.
// Shared returns the process-wide default; tests and embedders that need
// isolation create their own with NewContext.
//
// A model is declared next to its registry entry:
//
//	var cardEntry = registry.NewEntry("c 'Card'{'title': s, 'width': d}", nil)
//
//	var cardConverter = marshal.Model(cardEntry,
//		marshal.FieldOf("title", marshal.String, func(c *Card) *string { return &c.Title }),
//		marshal.FieldOf("width", marshal.Float64, func(c *Card) *float64 { return &c.Width }),
//	)
//
// Interface instances keep their identity across the boundary: marshalling
// the same instance returns the same proxy object while the boundary holds
// it, and unmarshalling that proxy returns the original instance. Proxies
// hold their instance weakly; calling a method after the instance has been
// collected fails with an errors.KindDeallocated error.
package marshal
