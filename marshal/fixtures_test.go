package marshal

import (
	"runtime"

	"github.com/wippyai/marshal-bridge/proxy"
	"github.com/wippyai/marshal-bridge/registry"
	"github.com/wippyai/marshal-bridge/schema"
	"github.com/wippyai/marshal-bridge/value"
)

type MyCard struct {
	Title    string
	Subtitle *string
	Width    float64
	Height   float64
	Selected *bool
	OnTap    func(string) (bool, error)
}

type MyCardSection struct {
	Cards []MyCard
	IDs   []int64
}

var (
	cardEntry = registry.NewEntry(
		"c 'MyCard'{'title': s, 'subtitle': s?, 'width': d, 'height': d, 'selected': b?, 'onTap': f?(s):b}", nil)

	cardConverter = Model(cardEntry,
		FieldOf("title", String, func(m *MyCard) *string { return &m.Title }),
		FieldOf("subtitle", Optional(String), func(m *MyCard) **string { return &m.Subtitle }),
		FieldOf("width", Float64, func(m *MyCard) *float64 { return &m.Width }),
		FieldOf("height", Float64, func(m *MyCard) *float64 { return &m.Height }),
		FieldOf("selected", Optional(Bool), func(m *MyCard) **bool { return &m.Selected }),
		FieldOf("onTap", Nullable[func(string) (bool, error)](Func1(String, Bool)), func(m *MyCard) *func(string) (bool, error) { return &m.OnTap }),
	)

	sectionEntry = registry.NewEntry("c 'MyCardSection'{'cards': a<r:'[0]'>, 'ids': a<l>}", func() []*registry.Entry {
		return []*registry.Entry{cardEntry}
	})

	sectionConverter = Model(sectionEntry,
		FieldOf("cards", Slice(cardConverter), func(m *MyCardSection) *[]MyCard { return &m.Cards }),
		FieldOf("ids", Slice(Int64), func(m *MyCardSection) *[]int64 { return &m.IDs }),
	)
)

type Color int32

const (
	Red   Color = 1
	Green Color = 2
)

type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

type Swatch struct {
	Color Color
	Mode  *Mode
}

var (
	colorEntry     = registry.NewEnumEntry("e<i> 'Color'{'Red': 1, 'Green': 2}")
	colorConverter = IntEnum[Color](colorEntry)

	modeEntry     = registry.NewEnumEntry("e<s> 'Mode'{'Light': 'light', 'Dark': 'dark'}")
	modeConverter = StringEnum[Mode](modeEntry)

	swatchEntry = registry.NewEntry("c 'Swatch'{'color': r:'[0]', 'mode': r:'[1]'?}", func() []*registry.Entry {
		return []*registry.Entry{colorEntry, modeEntry}
	})
	swatchConverter = Model(swatchEntry,
		FieldOf("color", colorConverter, func(m *Swatch) *Color { return &m.Color }),
		FieldOf("mode", Optional(modeConverter), func(m *Swatch) **Mode { return &m.Mode }),
	)
)

type GenericContainer[T any] struct {
	Value T
}

const containerTemplate = "c 'GenericContainer'{'value': r:0}"

func containerConverter[T any](entry *registry.Entry, conv Converter[T]) *ModelConverter[GenericContainer[T]] {
	return Model(entry, FieldOf("value", conv, func(m *GenericContainer[T]) *T { return &m.Value }))
}

var (
	intContainerEntry = registry.NewGenericEntry(containerTemplate, nil,
		func(r registry.Resolver) ([]schema.ValueSchema, error) {
			s, err := Int32.Schema(r)
			return []schema.ValueSchema{s}, err
		})
	intContainerConverter = containerConverter(intContainerEntry, Int32)

	cardContainerEntry = registry.NewGenericEntry(containerTemplate,
		func() []*registry.Entry { return []*registry.Entry{cardEntry} },
		func(r registry.Resolver) ([]schema.ValueSchema, error) {
			s, err := cardConverter.Schema(r)
			return []schema.ValueSchema{s}, err
		})
	cardContainerConverter = containerConverter(cardContainerEntry, Converter[MyCard](cardConverter))
)

// Calculator is a native interface exposed through proxies
type Calculator interface {
	proxy.Native
	Add(a, b float64) (float64, error)
}

type calculator struct {
	proxy.Object
	calls *int
}

func (c *calculator) Add(a, b float64) (float64, error) {
	if c.calls != nil {
		*c.calls++
	}
	return a + b, nil
}

// calculatorProxy implements Calculator over a boundary object
type calculatorProxy struct {
	proxy.Object
	add func(float64, float64) (float64, error)
}

func (p *calculatorProxy) Add(a, b float64) (float64, error) { return p.add(a, b) }

var addConverter = Func2(Float64, Float64, Float64)

func newCalculatorProxy(c *Context, obj *value.TypedObject) (Calculator, error) {
	add, err := Property(c, addConverter, obj, "add")
	if err != nil {
		return nil, err
	}
	return &calculatorProxy{add: add}, nil
}

var (
	calculatorEntry     = registry.NewEntry("c+ 'MyCalculator'{'add': f(d, d): d}", nil)
	calculatorConverter = Interface[Calculator](calculatorEntry, newCalculatorProxy,
		BindMethod("add", addConverter, func(c Calculator) func(float64, float64) (float64, error) { return c.Add }),
	)
)

func collect() {
	runtime.GC()
	runtime.GC()
}

func ptr[T any](v T) *T { return &v }
