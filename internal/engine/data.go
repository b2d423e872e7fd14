package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the type stored in a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindDouble
	KindBool
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "null"
	}
}

// Value is one typed settings entry.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	obj  *Data
	arr  []*Data
}

func StringValue(s string) Value { return Value{kind: KindString, s: s} }
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }
func DoubleValue(f float64) Value { return Value{kind: KindDouble, f: f} }
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }
func ObjectValue(d *Data) Value { return Value{kind: KindObject, obj: d} }
func ArrayValue(items []*Data) Value { return Value{kind: KindArray, arr: items} }

func (v Value) Kind() Kind { return v.kind }

// AsString returns the string payload, or "" for other kinds.
func (v Value) AsString() string { return v.s }

// AsInt returns the integer payload, truncating doubles.
func (v Value) AsInt() int64 {
	if v.kind == KindDouble {
		return int64(v.f)
	}
	return v.i
}

// AsDouble returns the numeric payload as float64.
func (v Value) AsDouble() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

func (v Value) AsBool() bool { return v.b }
func (v Value) AsObject() *Data { return v.obj }
func (v Value) AsArray() []*Data { return v.arr }
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindDouble }

func (v Value) clone() Value {
	switch v.kind {
	case KindObject:
		v.obj = v.obj.Clone()
	case KindArray:
		items := make([]*Data, len(v.arr))
		for i, item := range v.arr {
			items[i] = item.Clone()
		}
		v.arr = items
	}
	return v
}

// Entry is one key of a Data object as seen by iteration.
type Entry struct {
	Key   string
	Value Value
	// User is false when the value comes from the defaults layer.
	User bool
}

// Data is an ordered settings object with a user layer over a defaults layer.
// The zero value is not usable; call NewData.
type Data struct {
	keys     []string
	user     map[string]Value
	defaults map[string]Value
}

// NewData returns an empty settings object.
func NewData() *Data {
	return &Data{user: make(map[string]Value), defaults: make(map[string]Value)}
}

func (d *Data) touch(key string) {
	if _, ok := d.user[key]; ok {
		return
	}
	if _, ok := d.defaults[key]; ok {
		return
	}
	d.keys = append(d.keys, key)
}

// Set stores a user value.
func (d *Data) Set(key string, v Value) {
	d.touch(key)
	d.user[key] = v
}

// SetDefault stores a value in the defaults layer.
func (d *Data) SetDefault(key string, v Value) {
	d.touch(key)
	d.defaults[key] = v
}

func (d *Data) SetString(key, v string) { d.Set(key, StringValue(v)) }
func (d *Data) SetInt(key string, v int64) { d.Set(key, IntValue(v)) }
func (d *Data) SetDouble(key string, v float64) { d.Set(key, DoubleValue(v)) }
func (d *Data) SetBool(key string, v bool) { d.Set(key, BoolValue(v)) }
func (d *Data) SetObject(key string, v *Data) { d.Set(key, ObjectValue(v)) }
func (d *Data) SetArray(key string, v []*Data) { d.Set(key, ArrayValue(v)) }

// Get returns the user value, else the default.
func (d *Data) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	if v, ok := d.user[key]; ok {
		return v, true
	}
	v, ok := d.defaults[key]
	return v, ok
}

// HasUserValue reports whether key was set outside the defaults layer.
func (d *Data) HasUserValue(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.user[key]
	return ok
}

func (d *Data) GetString(key string) string {
	v, _ := d.Get(key)
	return v.AsString()
}

func (d *Data) GetInt(key string) int64 {
	v, _ := d.Get(key)
	return v.AsInt()
}

func (d *Data) GetDouble(key string) float64 {
	v, _ := d.Get(key)
	return v.AsDouble()
}

func (d *Data) GetBool(key string) bool {
	v, _ := d.Get(key)
	return v.AsBool()
}

func (d *Data) GetObject(key string) *Data {
	v, _ := d.Get(key)
	return v.AsObject()
}

func (d *Data) GetArray(key string) []*Data {
	v, _ := d.Get(key)
	return v.AsArray()
}

// Erase drops the user value for key, exposing the default if any.
func (d *Data) Erase(key string) {
	delete(d.user, key)
	if _, ok := d.defaults[key]; ok {
		return
	}
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Entries lists every key in insertion order.
func (d *Data) Entries() []Entry {
	if d == nil {
		return nil
	}
	out := make([]Entry, 0, len(d.keys))
	for _, k := range d.keys {
		if v, ok := d.user[k]; ok {
			out = append(out, Entry{Key: k, Value: v, User: true})
			continue
		}
		if v, ok := d.defaults[k]; ok {
			out = append(out, Entry{Key: k, Value: v})
		}
	}
	return out
}

// Len counts keys with a user value.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return len(d.user)
}

// Clone deep-copies both layers.
func (d *Data) Clone() *Data {
	if d == nil {
		return nil
	}
	out := NewData()
	out.keys = append([]string(nil), d.keys...)
	for k, v := range d.user {
		out.user[k] = v.clone()
	}
	for k, v := range d.defaults {
		out.defaults[k] = v.clone()
	}
	return out
}

// ApplyDefaults copies every entry of src into the defaults layer.
func (d *Data) ApplyDefaults(src *Data) {
	for _, e := range src.Entries() {
		d.SetDefault(e.Key, e.Value.clone())
	}
}

// Merge copies every user value of src over d.
func (d *Data) Merge(src *Data) {
	for _, e := range src.Entries() {
		if e.User {
			d.Set(e.Key, e.Value.clone())
		}
	}
}

// MarshalJSON writes user values in key order.
func (d *Data) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Data) writeJSON(buf *bytes.Buffer) error {
	if d == nil {
		buf.WriteString("null")
		return nil
	}
	buf.WriteByte('{')
	first := true
	for _, k := range d.keys {
		v, ok := d.user[k]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, _ := json.Marshal(k)
		buf.Write(key)
		buf.WriteByte(':')
		if err := v.writeJSON(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindString:
		b, _ := json.Marshal(v.s)
		buf.Write(b)
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindDouble:
		b, err := json.Marshal(v.f)
		if err != nil {
			return fmt.Errorf("encode double: %w", err)
		}
		buf.Write(b)
		// keep doubles distinguishable from ints on the way back in
		if !bytes.ContainsAny(b, ".eE") {
			buf.WriteString(".0")
		}
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindObject:
		return v.obj.writeJSON(buf)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		buf.WriteString("null")
	}
	return nil
}

// UnmarshalJSON reads an object into the user layer, preserving key order.
// Numbers containing a fraction or exponent become doubles.
func (d *Data) UnmarshalJSON(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	parsed, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// ParseData decodes a JSON object into a new Data.
func ParseData(raw []byte) (*Data, error) {
	d := NewData()
	if err := d.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return d, nil
}

func decodeObject(dec *json.Decoder) (*Data, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("settings: expected object, got %v", tok)
	}
	return decodeObjectBody(dec)
}

func decodeObjectBody(dec *json.Decoder) (*Data, error) {
	d := NewData()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("settings: expected key, got %v", tok)
		}
		v, ok, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("settings: %s: %w", key, err)
		}
		if ok {
			d.Set(key, v)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return d, nil
}

func decodeValue(dec *json.Decoder) (Value, bool, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, false, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj, err := decodeObjectBody(dec)
			if err != nil {
				return Value{}, false, err
			}
			return ObjectValue(obj), true, nil
		case '[':
			var items []*Data
			for dec.More() {
				item, ok, err := decodeValue(dec)
				if err != nil {
					return Value{}, false, err
				}
				// arrays hold objects only; scalars are wrapped as {"value": x}
				if !ok {
					continue
				}
				if item.kind == KindObject {
					items = append(items, item.obj)
				} else {
					wrapped := NewData()
					wrapped.Set("value", item)
					items = append(items, wrapped)
				}
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, false, err
			}
			return ArrayValue(items), true, nil
		}
		return Value{}, false, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return StringValue(t), true, nil
	case json.Number:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := t.Int64(); err == nil {
				return IntValue(i), true, nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, false, err
		}
		return DoubleValue(f), true, nil
	case bool:
		return BoolValue(t), true, nil
	case nil:
		return Value{}, false, nil
	}
	return Value{}, false, fmt.Errorf("unexpected token %v", tok)
}
