package normalize

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDict normalizes a mapping-ish value. Native maps pass through
// unchanged; strings are parsed as a restricted structured literal
// (Python-style dict repr or a JSON object — the raw layer contains both).
// Anything else, including malformed strings, yields (nil, false).
// Untrusted input is never evaluated, only scanned.
func ParseDict(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case string:
		p := &litScanner{src: t}
		p.skipSpace()
		val, ok := p.value()
		if !ok {
			return nil, false
		}
		p.skipSpace()
		if p.pos != len(p.src) {
			return nil, false
		}
		m, ok := val.(map[string]any)
		return m, ok
	default:
		return nil, false
	}
}

// litScanner is a small recursive-descent scanner over literal values:
// dicts, lists, quoted strings, numbers, True/False/None (and their JSON
// spellings). No identifiers, no calls, no expressions.
type litScanner struct {
	src string
	pos int
}

func (p *litScanner) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *litScanner) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *litScanner) value() (any, bool) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '{':
		return p.dict()
	case c == '[':
		return p.list()
	case c == '\'' || c == '"':
		return p.str()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.word()
	}
}

func (p *litScanner) dict() (any, bool) {
	p.pos++ // '{'
	out := map[string]any{}
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return out, true
	}
	for {
		p.skipSpace()
		k, ok := p.str()
		if !ok {
			return nil, false
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, false
		}
		p.pos++
		v, ok := p.value()
		if !ok {
			return nil, false
		}
		out[k.(string)] = v
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return out, true
		default:
			return nil, false
		}
	}
}

func (p *litScanner) list() (any, bool) {
	p.pos++ // '['
	out := []any{}
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return out, true
	}
	for {
		v, ok := p.value()
		if !ok {
			return nil, false
		}
		out = append(out, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return out, true
		default:
			return nil, false
		}
	}
}

func (p *litScanner) str() (any, bool) {
	quote := p.peek()
	if quote != '\'' && quote != '"' {
		return nil, false
	}
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), true
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return nil, false
			}
			switch e := p.src[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(e) // \' \" \\ and anything exotic kept verbatim
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return nil, false // unterminated
}

func (p *litScanner) number() (any, bool) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '+' ||
			(c == '-' && p.pos > start && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E')) {
			p.pos++
			continue
		}
		break
	}
	f, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

func (p *litScanner) word() (any, bool) {
	start := p.pos
	for p.pos < len(p.src) && (unicode.IsLetter(rune(p.src[p.pos]))) {
		p.pos++
	}
	switch p.src[start:p.pos] {
	case "True", "true":
		return true, true
	case "False", "false":
		return false, true
	case "None", "null":
		return nil, true
	}
	return nil, false
}
