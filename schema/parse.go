package schema

import (
	"strconv"

	"github.com/wippyai/marshal-bridge/errors"
)

// Parse parses schema text in short or long form.
//
//	c 'MyCard'{'title': s, 'subtitle': s?, 'onTap': f?(s):b}
//	class 'MyCard'{'title': string, 'subtitle': string?, 'onTap': func?(string): bool}
func Parse(text string) (ValueSchema, error) {
	p := &parser{src: text}
	s, err := p.parseType()
	if err != nil {
		return ValueSchema{}, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return ValueSchema{}, p.fail("unexpected trailing input %q", p.rest())
	}
	return s, nil
}

// MustParse is like Parse but panics on error. Intended for static tables.
func MustParse(text string) ValueSchema {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

// HeaderName returns the declared name of a class or enum template
// without parsing its body.
func HeaderName(text string) (string, error) {
	p := &parser{src: text}
	p.skipSpace()
	word := p.word()
	switch word {
	case "c", "class", "c+", "class+":
	case "e", "enum":
		if err := p.expect('<'); err != nil {
			return "", err
		}
		p.word()
		if err := p.expect('>'); err != nil {
			return "", err
		}
	default:
		return "", p.fail("expected class or enum declaration, got %q", word)
	}
	return p.quoted()
}

type parser struct {
	src string
	pos int
}

func (p *parser) fail(format string, args ...any) error {
	return errors.New(errors.PhaseParse, errors.KindParse).
		Value(p.pos).
		Detail("schema at offset %d: "+format, append([]any{p.pos}, args...)...).
		Build()
}

func (p *parser) rest() string {
	r := p.src[p.pos:]
	if len(r) > 16 {
		r = r[:16]
	}
	return r
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) accept(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(c byte) error {
	if !p.accept(c) {
		if p.pos >= len(p.src) {
			return p.fail("expected %q, got end of input", c)
		}
		return p.fail("expected %q, got %q", c, p.src[p.pos])
	}
	return nil
}

// word reads a lowercase keyword, including a trailing '+' marker
func (p *parser) word() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= 'a' && c <= 'z') || c == '+' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *parser) quoted() (string, error) {
	if err := p.expect('\''); err != nil {
		return "", err
	}
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '\'' {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return "", p.fail("unterminated quoted name")
	}
	s := p.src[start:p.pos]
	p.pos++
	return s, nil
}

func (p *parser) integer() (int64, error) {
	p.skipSpace()
	start := p.pos
	if p.pos < len(p.src) && p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.ParseInt(p.src[start:p.pos], 10, 64)
	if err != nil {
		p.pos = start
		return 0, p.fail("expected integer")
	}
	return n, nil
}

func (p *parser) parseType() (ValueSchema, error) {
	start := p.pos
	word := p.word()

	var s ValueSchema
	var err error

	switch word {
	case "s", "string":
		s = Of(KindString)
	case "i", "int":
		s = Of(KindInt)
	case "l", "long":
		s = Of(KindLong)
	case "b", "bool":
		s = Of(KindBool)
	case "d", "double":
		s = Of(KindDouble)
	case "u", "untyped":
		s = Of(KindUntyped)
	case "v", "void":
		s = Of(KindVoid)
	case "m", "map":
		s = Of(KindMap)
	case "t", "bytes":
		s = Of(KindBytes)
	case "a", "array":
		s, err = p.parseArray()
	case "r", "ref":
		s, err = p.parseRef()
	case "link":
		s, err = p.parseLink()
	case "g", "generic":
		s, err = p.parseGeneric()
	case "f", "func":
		// functions carry their own optional marker before the parameter list
		return p.parseFunc()
	case "c", "class":
		s, err = p.parseClass(false)
	case "c+", "class+":
		s, err = p.parseClass(true)
	case "e", "enum":
		s, err = p.parseEnum()
	case "":
		if p.pos >= len(p.src) {
			return ValueSchema{}, p.fail("unexpected end of input")
		}
		return ValueSchema{}, p.fail("unexpected %q", p.src[p.pos])
	default:
		p.pos = start
		return ValueSchema{}, p.fail("unknown type %q", word)
	}
	if err != nil {
		return ValueSchema{}, err
	}

	if p.accept('?') {
		s.Optional = true
	}
	return s, nil
}

func (p *parser) parseArray() (ValueSchema, error) {
	if err := p.expect('<'); err != nil {
		return ValueSchema{}, err
	}
	elem, err := p.parseType()
	if err != nil {
		return ValueSchema{}, err
	}
	if err := p.expect('>'); err != nil {
		return ValueSchema{}, err
	}
	return ArrayOf(elem), nil
}

func (p *parser) parseRef() (ValueSchema, error) {
	if err := p.expect(':'); err != nil {
		return ValueSchema{}, err
	}
	if p.peek() == '\'' {
		name, err := p.quoted()
		if err != nil {
			return ValueSchema{}, err
		}
		return RefTo(name), nil
	}
	n, err := p.integer()
	if err != nil {
		return ValueSchema{}, err
	}
	if n < 0 {
		return ValueSchema{}, p.fail("negative type parameter %d", n)
	}
	return ParamAt(int(n)), nil
}

func (p *parser) parseLink() (ValueSchema, error) {
	if err := p.expect(':'); err != nil {
		return ValueSchema{}, err
	}
	var s ValueSchema
	var err error
	switch w := p.word(); w {
	case "r", "ref":
		s, err = p.parseRef()
	case "g", "generic":
		s, err = p.parseGeneric()
	default:
		return ValueSchema{}, p.fail("link must target a reference, got %q", w)
	}
	if err != nil {
		return ValueSchema{}, err
	}
	if s.Kind == KindTypeParam {
		return ValueSchema{}, p.fail("link cannot target a type parameter")
	}
	s.Linked = true
	return s, nil
}

func (p *parser) parseGeneric() (ValueSchema, error) {
	if err := p.expect(':'); err != nil {
		return ValueSchema{}, err
	}
	name, err := p.quoted()
	if err != nil {
		return ValueSchema{}, err
	}
	if err := p.expect('<'); err != nil {
		return ValueSchema{}, err
	}
	var args []ValueSchema
	for {
		arg, err := p.parseType()
		if err != nil {
			return ValueSchema{}, err
		}
		args = append(args, arg)
		if p.accept('>') {
			break
		}
		if err := p.expect(','); err != nil {
			return ValueSchema{}, err
		}
	}
	return GenericOf(name, args...), nil
}

func (p *parser) parseFunc() (ValueSchema, error) {
	optional := p.accept('?')
	if err := p.expect('('); err != nil {
		return ValueSchema{}, err
	}
	var params []ValueSchema
	if !p.accept(')') {
		for {
			param, err := p.parseType()
			if err != nil {
				return ValueSchema{}, err
			}
			params = append(params, param)
			if p.accept(')') {
				break
			}
			if err := p.expect(','); err != nil {
				return ValueSchema{}, err
			}
		}
	}
	ret := Of(KindVoid)
	if p.accept(':') {
		var err error
		if ret, err = p.parseType(); err != nil {
			return ValueSchema{}, err
		}
	}
	s := FuncOf(ret, params...)
	s.Optional = optional
	return s, nil
}

func (p *parser) parseClass(iface bool) (ValueSchema, error) {
	name, err := p.quoted()
	if err != nil {
		return ValueSchema{}, err
	}
	if err := p.expect('{'); err != nil {
		return ValueSchema{}, err
	}
	c := &ClassSchema{Name: name, Interface: iface}
	if p.accept('}') {
		return ClassOf(c), nil
	}
	for {
		fieldName, err := p.quoted()
		if err != nil {
			return ValueSchema{}, err
		}
		if c.FieldIndex(fieldName) >= 0 {
			return ValueSchema{}, p.fail("duplicate field %q in %s", fieldName, name)
		}
		if err := p.expect(':'); err != nil {
			return ValueSchema{}, err
		}
		typ, err := p.parseType()
		if err != nil {
			return ValueSchema{}, err
		}
		c.Fields = append(c.Fields, Field{Name: fieldName, Type: typ})
		if p.accept('}') {
			break
		}
		if err := p.expect(','); err != nil {
			return ValueSchema{}, err
		}
	}
	return ClassOf(c), nil
}

func (p *parser) parseEnum() (ValueSchema, error) {
	if err := p.expect('<'); err != nil {
		return ValueSchema{}, err
	}
	e := &EnumSchema{}
	switch w := p.word(); w {
	case "i", "int":
	case "s", "string":
		e.StringValued = true
	default:
		return ValueSchema{}, p.fail("enum must be int or string valued, got %q", w)
	}
	if err := p.expect('>'); err != nil {
		return ValueSchema{}, err
	}
	name, err := p.quoted()
	if err != nil {
		return ValueSchema{}, err
	}
	e.Name = name
	if err := p.expect('{'); err != nil {
		return ValueSchema{}, err
	}
	if p.accept('}') {
		return EnumOf(e), nil
	}
	for {
		caseName, err := p.quoted()
		if err != nil {
			return ValueSchema{}, err
		}
		if err := p.expect(':'); err != nil {
			return ValueSchema{}, err
		}
		ec := EnumCase{Name: caseName}
		if e.StringValued {
			if ec.Str, err = p.quoted(); err != nil {
				return ValueSchema{}, err
			}
		} else {
			if ec.Int, err = p.integer(); err != nil {
				return ValueSchema{}, err
			}
		}
		e.Cases = append(e.Cases, ec)
		if p.accept('}') {
			break
		}
		if err := p.expect(','); err != nil {
			return ValueSchema{}, err
		}
	}
	return EnumOf(e), nil
}
