package msgdef

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/activegrasp/rostrait"
	"go.uber.org/multierr"
)

const (
	commentChar = "#"
	constChar   = "="
	ioDelim     = "---"
)

var validate = rostrait.NewValidator()

// ParseMessage parses the text of a .msg file.
func ParseMessage(name rostrait.TypeName, text string) (*Message, error) {
	if err := name.Validate(); err != nil {
		return nil, err
	}
	m := &Message{Name: name}

	var errs error
	for i, line := range strings.Split(text, "\n") {
		clean := stripComment(line)
		if clean == "" {
			continue
		}
		var err error
		if strings.Contains(clean, constChar) {
			err = m.parseConstant(line, clean)
		} else {
			err = m.parseField(clean)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s:%d: %w", name, i+1, err))
		}
	}
	if errs != nil {
		return nil, errs
	}

	if err := checkUnique(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseService parses the text of a .srv file. The request and response are
// named <Service>Request and <Service>Response.
func ParseService(name rostrait.TypeName, text string) (*Service, error) {
	if err := name.Validate(); err != nil {
		return nil, err
	}

	var in, out strings.Builder
	accum := &in
	for _, line := range strings.Split(text, "\n") {
		line = stripComment(line)
		if strings.HasPrefix(line, ioDelim) {
			accum = &out
			continue
		}
		accum.WriteString(line)
		accum.WriteByte('\n')
	}

	req, reqErr := ParseMessage(rostrait.RequestName(name), in.String())
	res, resErr := ParseMessage(rostrait.ResponseName(name), out.String())
	if err := multierr.Combine(reqErr, resErr); err != nil {
		return nil, err
	}
	return &Service{Name: name, Request: req, Response: res}, nil
}

func stripComment(line string) string {
	before, _, _ := strings.Cut(line, commentChar)
	return strings.TrimSpace(before)
}

func (m *Message) parseField(clean string) error {
	parts := strings.Fields(clean)
	if len(parts) != 2 {
		return rostrait.Errorf(rostrait.CodeInvalidArgument, "invalid field declaration %q", clean)
	}
	f := Field{Type: parts[0], Name: parts[1]}
	if err := validate.Struct(f); err != nil {
		return err
	}

	base := f.BaseType()
	suffix := strings.TrimPrefix(f.Type, base)
	switch {
	case base == "Header":
		f.Type = string(HeaderType) + suffix
	case !IsBuiltin(base) && !strings.Contains(base, "/"):
		f.Type = string(rostrait.Qualify(m.Package(), base)) + suffix
	}
	m.Fields = append(m.Fields, f)
	return nil
}

func (m *Message) parseConstant(orig, clean string) error {
	typ, rest, _ := strings.Cut(clean, " ")
	c := Constant{Type: typ}

	if typ == "string" {
		// String values are everything after the first '=' of the original
		// line, comment characters included.
		_, afterType, _ := strings.Cut(strings.TrimSpace(orig), " ")
		name, value, _ := strings.Cut(afterType, constChar)
		c.Name = strings.TrimSpace(name)
		c.Value = strings.TrimSpace(value)
	} else {
		name, value, _ := strings.Cut(rest, constChar)
		c.Name = strings.TrimSpace(name)
		c.Value = strings.TrimSpace(value)
	}

	if err := validate.Struct(c); err != nil {
		return err
	}
	if err := checkConstantValue(c); err != nil {
		return err
	}
	m.Constants = append(m.Constants, c)
	return nil
}

func checkConstantValue(c Constant) error {
	var err error
	switch c.Type {
	case "string":
		return nil
	case "bool":
		_, err = ParseBool(c.Value)
	case "float32":
		_, err = strconv.ParseFloat(c.Value, 32)
	case "float64":
		_, err = strconv.ParseFloat(c.Value, 64)
	case "int8", "byte":
		_, err = strconv.ParseInt(c.Value, 10, 8)
	case "uint8", "char":
		_, err = strconv.ParseUint(c.Value, 10, 8)
	case "int16":
		_, err = strconv.ParseInt(c.Value, 10, 16)
	case "uint16":
		_, err = strconv.ParseUint(c.Value, 10, 16)
	case "int32":
		_, err = strconv.ParseInt(c.Value, 10, 32)
	case "uint32":
		_, err = strconv.ParseUint(c.Value, 10, 32)
	case "int64":
		_, err = strconv.ParseInt(c.Value, 10, 64)
	case "uint64":
		_, err = strconv.ParseUint(c.Value, 10, 64)
	}
	if err != nil {
		return rostrait.Errorf(rostrait.CodeInvalidArgument, "constant %s: invalid %s value %q", c.Name, c.Type, c.Value)
	}
	return nil
}

// ParseBool parses a bool constant value as accepted in definitions.
func ParseBool(s string) (bool, error) {
	switch s {
	case "True", "true", "1":
		return true, nil
	case "False", "false", "0":
		return false, nil
	}
	return false, strconv.ErrSyntax
}

// checkUnique rejects repeated field or constant names.
func checkUnique(m *Message) error {
	seen := make(map[string]bool, len(m.Fields)+len(m.Constants))
	var errs error
	for _, c := range m.Constants {
		if seen[c.Name] {
			errs = multierr.Append(errs, rostrait.Errorf(rostrait.CodeInvalidArgument, "%s: duplicate name %s", m.Name, c.Name))
		}
		seen[c.Name] = true
	}
	for _, f := range m.Fields {
		if seen[f.Name] {
			errs = multierr.Append(errs, rostrait.Errorf(rostrait.CodeInvalidArgument, "%s: duplicate name %s", m.Name, f.Name))
		}
		seen[f.Name] = true
	}
	return errs
}

