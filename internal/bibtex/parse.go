package bibtex

import (
	"fmt"
	"strings"
	"unicode"
)

// Parse reads all entries from BibTeX source text. @comment, @string and
// @preamble blocks are skipped. A malformed entry is a hard error: the
// bibliography is the deduplication index for every later run, so a
// partial parse must never look like a complete one.
func Parse(data []byte) ([]*Entry, error) {
	p := &parser{src: string(data)}
	var entries []*Entry

	for {
		if !p.seek('@') {
			return entries, nil
		}
		at := p.pos
		p.pos++ // consume @

		entryType := strings.ToLower(p.readIdent())
		p.skipSpace()
		if entryType == "" || !p.consume('{') {
			// Not an entry start: a stray @ in inter-entry free text
			// (an email address, say). Resume scanning after it.
			p.pos = at + 1
			continue
		}

		switch entryType {
		case "comment", "string", "preamble":
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
			continue
		}

		entry, err := p.readEntry(entryType)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
}

// parser is a cursor over BibTeX source text.
type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	line := 1 + strings.Count(p.src[:min(p.pos, len(p.src))], "\n")
	return fmt.Errorf("bibtex parse error at line %d: %s", line, fmt.Sprintf(format, args...))
}

// seek advances to the next occurrence of c, returning false at EOF.
func (p *parser) seek(c byte) bool {
	idx := strings.IndexByte(p.src[p.pos:], c)
	if idx < 0 {
		p.pos = len(p.src)
		return false
	}
	p.pos += idx
	return true
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) consume(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

// readIdent reads an identifier: letters, digits, and the punctuation
// BibTeX allows in field names.
func (p *parser) readIdent() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '{' || c == '}' || c == '=' || c == ',' || unicode.IsSpace(rune(c)) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

// readEntry parses the body of one entry after its opening brace.
func (p *parser) readEntry(entryType string) (*Entry, error) {
	p.skipSpace()
	key := p.readIdent()
	if key == "" {
		return nil, p.errorf("missing citation key in @%s entry", entryType)
	}

	entry := &Entry{
		Type:   entryType,
		Key:    key,
		Fields: make(map[string]string),
	}

	for {
		p.skipSpace()
		if p.consume('}') {
			return entry, nil
		}
		if !p.consume(',') {
			return nil, p.errorf("expected , or } in entry %s", key)
		}
		p.skipSpace()
		if p.consume('}') {
			// Trailing comma before the closing brace
			return entry, nil
		}

		name := strings.ToLower(p.readIdent())
		if name == "" {
			return nil, p.errorf("missing field name in entry %s", key)
		}

		p.skipSpace()
		if !p.consume('=') {
			return nil, p.errorf("expected = after field %s in entry %s", name, key)
		}
		p.skipSpace()

		value, err := p.readValue(key, name)
		if err != nil {
			return nil, err
		}
		entry.Fields[name] = value
	}
}

// readValue parses a field value: a braced group, a quoted string, or a
// bare token (numbers and month macros).
func (p *parser) readValue(key, field string) (string, error) {
	if p.pos >= len(p.src) {
		return "", p.errorf("unterminated entry %s", key)
	}

	switch p.src[p.pos] {
	case '{':
		p.pos++
		start := p.pos
		depth := 1
		for p.pos < len(p.src) {
			switch p.src[p.pos] {
			case '\\':
				p.pos++ // skip escaped character
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					value := p.src[start:p.pos]
					p.pos++
					return value, nil
				}
			}
			p.pos++
		}
		return "", p.errorf("unbalanced braces in field %s of entry %s", field, key)

	case '"':
		p.pos++
		start := p.pos
		for p.pos < len(p.src) {
			if p.src[p.pos] == '\\' {
				p.pos++
			} else if p.src[p.pos] == '"' {
				value := p.src[start:p.pos]
				p.pos++
				return value, nil
			}
			p.pos++
		}
		return "", p.errorf("unterminated quoted value in field %s of entry %s", field, key)

	default:
		token := p.readIdent()
		if token == "" {
			return "", p.errorf("empty value for field %s in entry %s", field, key)
		}
		return token, nil
	}
}

// skipBalanced consumes up to and including the brace matching the one
// just consumed.
func (p *parser) skipBalanced() error {
	depth := 1
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				p.pos++
				return nil
			}
		}
		p.pos++
	}
	return p.errorf("unbalanced braces in skipped block")
}
