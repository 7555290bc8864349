package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a JSON node. Object keys keep document order so that tree walks
// are deterministic.
type Value struct {
	kind   Kind
	flag   bool
	number json.Number
	text   string
	items  []*Value
	keys   []string
	fields map[string]*Value
}

// Parse decodes a single JSON document.
func Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after json document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			v := &Value{kind: KindArray}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				v.items = append(v.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return v, nil
		case '{':
			v := &Value{kind: KindObject, fields: map[string]*Value{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				field, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := v.fields[key]; !dup {
					v.keys = append(v.keys, key)
				}
				v.fields[key] = field
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return v, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case bool:
		return &Value{kind: KindBool, flag: t}, nil
	case json.Number:
		return &Value{kind: KindNumber, number: t}, nil
	case string:
		return &Value{kind: KindString, text: t}, nil
	case nil:
		return &Value{kind: KindNull}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// Kind reports the variant; a nil Value is null.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsObject reports whether v is a JSON object.
func (v *Value) IsObject() bool { return v.Kind() == KindObject }

// IsArray reports whether v is a JSON array.
func (v *Value) IsArray() bool { return v.Kind() == KindArray }

// Get returns the named field of an object, or nil.
func (v *Value) Get(key string) *Value {
	if v.Kind() != KindObject {
		return nil
	}
	return v.fields[key]
}

// Has reports whether an object carries key, whatever its value.
func (v *Value) Has(key string) bool {
	if v.Kind() != KindObject {
		return false
	}
	_, ok := v.fields[key]
	return ok
}

// Path follows object keys and returns nil as soon as one is missing.
func (v *Value) Path(keys ...string) *Value {
	cur := v
	for _, key := range keys {
		if !cur.Has(key) {
			return nil
		}
		cur = cur.fields[key]
	}
	return cur
}

// Items returns array elements.
func (v *Value) Items() []*Value {
	if v.Kind() != KindArray {
		return nil
	}
	return v.items
}

// Keys returns object keys in document order.
func (v *Value) Keys() []string {
	if v.Kind() != KindObject {
		return nil
	}
	return v.keys
}

// Truthy mirrors JSON-ish truthiness: null, false, 0, "", [] and {} are false.
func (v *Value) Truthy() bool {
	switch v.Kind() {
	case KindBool:
		return v.flag
	case KindNumber:
		f, err := v.number.Float64()
		return err == nil && f != 0
	case KindString:
		return v.text != ""
	case KindArray:
		return len(v.items) > 0
	case KindObject:
		return len(v.keys) > 0
	default:
		return false
	}
}

// Str returns the string payload.
func (v *Value) Str() (string, bool) {
	if v.Kind() != KindString {
		return "", false
	}
	return v.text, true
}

// Scalar renders strings and numbers as text.
func (v *Value) Scalar() (string, bool) {
	switch v.Kind() {
	case KindString:
		return v.text, true
	case KindNumber:
		return v.number.String(), true
	default:
		return "", false
	}
}

// Float returns numbers, and strings holding numbers, as float64.
func (v *Value) Float() (float64, bool) {
	var raw string
	switch v.Kind() {
	case KindNumber:
		raw = v.number.String()
	case KindString:
		raw = strings.TrimSpace(v.text)
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// maxIntValue bounds the magnitude Int and StrictInt accept.
const maxIntValue = math.MaxInt32

// Int returns integral numbers, truncated floats, and decimal strings whose
// magnitude fits in an int32.
func (v *Value) Int() (int, bool) {
	switch v.Kind() {
	case KindNumber:
		if n, err := v.number.Int64(); err == nil {
			return boundedInt(n)
		}
		f, err := v.number.Float64()
		if err != nil || math.IsNaN(f) || math.Abs(f) > maxIntValue {
			return 0, false
		}
		return int(f), true
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.text), 10, 64)
		if err != nil {
			return 0, false
		}
		return boundedInt(n)
	default:
		return 0, false
	}
}

// StrictInt accepts only JSON numbers without a fractional part.
func (v *Value) StrictInt() (int, bool) {
	if v.Kind() != KindNumber {
		return 0, false
	}
	n, err := v.number.Int64()
	if err != nil {
		return 0, false
	}
	return boundedInt(n)
}

func boundedInt(n int64) (int, bool) {
	if n > maxIntValue || n < -maxIntValue {
		return 0, false
	}
	return int(n), true
}

// First returns the first truthy field among keys.
func (v *Value) First(keys ...string) *Value {
	for _, key := range keys {
		if field := v.Get(key); field.Truthy() {
			return field
		}
	}
	return nil
}

// Walk visits v and its descendants depth-first, in document order, down to
// maxDepth (the root is depth 0).
func Walk(v *Value, maxDepth int, visit func(node *Value, depth int)) {
	walk(v, 0, maxDepth, visit)
}

func walk(v *Value, depth, maxDepth int, visit func(*Value, int)) {
	if v == nil || depth > maxDepth {
		return
	}
	visit(v, depth)
	switch v.kind {
	case KindArray:
		for _, item := range v.items {
			walk(item, depth+1, maxDepth, visit)
		}
	case KindObject:
		for _, key := range v.keys {
			walk(v.fields[key], depth+1, maxDepth, visit)
		}
	}
}
