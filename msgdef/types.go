// Package msgdef parses message and service definitions and computes their
// structural fingerprints.
//
// The fingerprint of a message is the MD5 of its MD5 text: one line per
// constant ("type NAME=value"), then one line per field. Builtin fields are
// written as declared ("float64[3] x"); message-typed fields, arrays included,
// are written as the fingerprint of the referenced message followed by the
// field name. A service fingerprint is the MD5 of the request text followed
// directly by the response text.
package msgdef

import (
	"strconv"
	"strings"

	"github.com/activegrasp/rostrait"
)

// HeaderType is the message an unqualified "Header" field refers to.
const HeaderType rostrait.TypeName = "std_msgs/Header"

var builtinTypes = map[string]bool{
	"bool": true, "int8": true, "uint8": true, "int16": true, "uint16": true,
	"int32": true, "uint32": true, "int64": true, "uint64": true,
	"float32": true, "float64": true, "string": true,
	"time": true, "duration": true,
	// Deprecated aliases, kept verbatim in MD5 text.
	"char": true, "byte": true,
}

// IsBuiltin reports whether base (without array suffix) is a builtin type.
func IsBuiltin(base string) bool {
	return builtinTypes[base]
}

// Field is one field of a message.
type Field struct {
	// Type is the declared type. Builtins are kept as written; message types
	// are package qualified ("geometry_msgs/Point[]").
	Type string `validate:"required,rostype"`
	Name string `validate:"required,rosname"`
}

// BaseType returns Type without its array suffix.
func (f Field) BaseType() string {
	base, _, _ := strings.Cut(f.Type, "[")
	return base
}

// IsArray reports whether the field is a fixed or variable length array.
func (f Field) IsArray() bool {
	return strings.HasSuffix(f.Type, "]")
}

// ArrayLen returns the length of a fixed size array field.
func (f Field) ArrayLen() (int, bool) {
	_, rest, ok := strings.Cut(f.Type, "[")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(rest, "]"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsBuiltin reports whether the field's base type is a builtin.
func (f Field) IsBuiltin() bool {
	return IsBuiltin(f.BaseType())
}

// Constant is a named constant declared in a message.
type Constant struct {
	Type string `validate:"required,oneof=bool int8 uint8 int16 uint16 int32 uint32 int64 uint64 float32 float64 string char byte"`
	Name string `validate:"required,rosname"`
	// Value is the declared text of the value, trimmed.
	Value string
}

// Message is a parsed message definition.
type Message struct {
	Name      rostrait.TypeName
	Fields    []Field    `validate:"dive"`
	Constants []Constant `validate:"dive"`
}

// Package returns the package the message belongs to.
func (m *Message) Package() string { return m.Name.Package() }

// Dependencies returns the distinct message types referenced by fields, in
// declaration order.
func (m *Message) Dependencies() []rostrait.TypeName {
	var deps []rostrait.TypeName
	seen := make(map[rostrait.TypeName]bool)
	for _, f := range m.Fields {
		if f.IsBuiltin() {
			continue
		}
		t := rostrait.TypeName(f.BaseType())
		if !seen[t] {
			seen[t] = true
			deps = append(deps, t)
		}
	}
	return deps
}

// Service is a parsed service definition.
type Service struct {
	Name     rostrait.TypeName
	Request  *Message
	Response *Message
}
