// Package manifest declares bridged types in YAML instead of generated Go.
//
//	types:
//	  - name: MyCard
//	    template: "c 'MyCard'{'title': s, 'color': r:'[0]'}"
//	    deps: [CardColor]
//	  - name: CardColor
//	    template: "e<i> 'CardColor'{'Red': 1, 'Blue': 2}"
//	  - name: CardBox
//	    template: "c 'CardBox'{'value': r:0}"
//	    type_args: ["r:'MyCard'"]
//
// Manifest.Entries turns the declarations into registry entries that
// resolve like their generated counterparts.
package manifest
