// Package schema describes the shape of bridged values.
//
// Templates use a compact grammar; the long form is accepted as well and
// is what String renders:
//
//	c 'MyCard'{'title': s, 'subtitle': s?}    class 'MyCard'{'title': string, 'subtitle': string?}
//	c+ 'Calc'{'add': f(d, d): d}              interface class
//	e<i> 'Color'{'Red': 1}                    enum<int> 'Color'{'Red': 1}
//	a<l>, m, t, u, v                          array<long>, map, bytes, untyped, void
//	r:'Name', r:0, g:'Box'<i>                 type reference, type parameter, generic instantiation
//
// A Table stores registered classes and enums by key. A Resolver
// substitutes type parameters, instantiates generic references and links
// every type reference against the table.
package schema
