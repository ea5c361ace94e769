package identity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed is returned when the config file is not a single JSON object.
var ErrMalformed = errors.New("malformed config file")

type member struct {
	key string
	// rawKey is the key exactly as it appeared in the file, quotes included.
	rawKey []byte
	value  json.RawMessage
}

// document is a top-level JSON object whose members keep their original
// order and raw value bytes.
type document struct {
	members       []member
	indent        string // empty for compact documents
	trailingNewln bool
}

func parseDocument(data []byte) (*document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrMalformed)
	}

	doc := &document{
		indent:        detectIndent(data),
		trailingNewln: bytes.HasSuffix(data, []byte("\n")),
	}

	for dec.More() {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected token %v", ErrMalformed, tok)
		}
		rawKey := bytes.TrimLeft(data[start:dec.InputOffset()], " \t\r\n,")

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: value of %q: %v", ErrMalformed, key, err)
		}
		doc.members = append(doc.members, member{key: key, rawKey: rawKey, value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformed)
	}

	return doc, nil
}

// get returns the raw value of key.
func (d *document) get(key string) (json.RawMessage, bool) {
	for _, m := range d.members {
		if m.key == key {
			return m.value, true
		}
	}
	return nil, false
}

// setString replaces every member named key, or appends one.
func (d *document) setString(key, value string) error {
	raw, err := marshalNoEscape(value)
	if err != nil {
		return err
	}
	rawKey, err := marshalNoEscape(key)
	if err != nil {
		return err
	}

	found := false
	for i := range d.members {
		if d.members[i].key == key {
			d.members[i].value = raw
			found = true
		}
	}
	if !found {
		d.members = append(d.members, member{key: key, rawKey: rawKey, value: raw})
	}
	return nil
}

// encode serialises the document with the layout it was read with.
func (d *document) encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, m := range d.members {
		if i > 0 {
			buf.WriteByte(',')
		}
		if d.indent == "" {
			buf.Write(m.rawKey)
			buf.WriteByte(':')
			if err := json.Compact(&buf, m.value); err != nil {
				return nil, err
			}
			continue
		}

		buf.WriteByte('\n')
		buf.WriteString(d.indent)
		buf.Write(m.rawKey)
		buf.WriteString(": ")
		if err := json.Indent(&buf, m.value, d.indent, d.indent); err != nil {
			return nil, err
		}
	}

	if d.indent != "" && len(d.members) > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')
	if d.trailingNewln {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// detectIndent returns the leading whitespace of the first indented line,
// "    " for multi-line documents without one, or "" for compact documents.
func detectIndent(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	nl := bytes.IndexByte(trimmed, '\n')
	if nl < 0 {
		return ""
	}

	rest := trimmed[nl+1:]
	end := 0
	for end < len(rest) && (rest[end] == ' ' || rest[end] == '\t') {
		end++
	}
	if end == 0 {
		return "    "
	}
	return string(rest[:end])
}

// marshalNoEscape encodes v without HTML escaping so keys and values keep
// their characters.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
