// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package results

import (
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
)

// ValueKind is the decoded type of a cell.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindNumeric
	KindText
	KindBytes
)

// NullText is how NULL cells are displayed.
const NullText = "NULL"

// Value is a single nullable, typed cell. The zero Value is NULL.
type Value struct {
	kind ValueKind
	text string
	b    bool
	i    int64
	f    float64
	raw  []byte
}

func Null() Value              { return Value{} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b, text: strconv.FormatBool(b)} }
func Int(i int64) Value        { return Value{kind: KindInt, i: i, text: strconv.FormatInt(i, 10)} }
func Text(s string) Value      { return Value{kind: KindText, text: s} }
func Numeric(s string) Value   { return Value{kind: KindNumeric, text: s} }
func Bytes(b []byte) Value     { return Value{kind: KindBytes, raw: b, text: "0x" + strings.ToUpper(hex.EncodeToString(b))} }
func Float(f float64) Value    { return Value{kind: KindFloat, f: f, text: strconv.FormatFloat(f, 'g', -1, 64)} }
func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == KindNull }

// String returns the display form of the value.
func (v Value) String() string {
	if v.kind == KindNull {
		return NullText
	}
	return v.text
}

// Interface returns the value as a Go value suitable for encoding/json.
// Numeric values are returned as json.Number so precision survives a round trip.
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindNumeric:
		return json.Number(v.text)
	default:
		return v.text
	}
}

// Decode converts a cell in the server's text format into a Value using the
// declared type name of its column. A nil raw slice is NULL.
func Decode(typeName string, raw []byte) Value {
	if raw == nil {
		return Null()
	}
	s := string(raw)
	switch typeName {
	case "int2", "int4", "int8", "oid":
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i)
		}
	case "float4", "float8":
		// NaN and Infinity are not representable in JSON and stay text.
		if f, err := strconv.ParseFloat(s, 64); err == nil && finite(s) {
			return Float(f)
		}
	case "numeric":
		if _, err := strconv.ParseFloat(s, 64); err == nil && finite(s) {
			return Numeric(s)
		}
	case "bool":
		switch s {
		case "t", "true":
			return Bool(true)
		case "f", "false":
			return Bool(false)
		}
	case "bytea":
		if strings.HasPrefix(s, `\x`) {
			if b, err := hex.DecodeString(s[2:]); err == nil {
				return Bytes(b)
			}
		}
	}
	return Text(s)
}

func finite(s string) bool {
	switch strings.TrimPrefix(s, "-") {
	case "NaN", "Infinity", "inf", "Inf":
		return false
	}
	return true
}

// FromInterface builds a Value from a decoded JSON value.
func FromInterface(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i)
		}
		return Numeric(t.String())
	case float64:
		return Float(t)
	case int64:
		return Int(t)
	case int:
		return Int(int64(t))
	case string:
		return Text(t)
	default:
		b, _ := json.Marshal(t)
		return Text(string(b))
	}
}
