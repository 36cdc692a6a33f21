// Package srvgen generates Go bindings for service definitions: a service
// type, its request and response records, and the identity methods that tie
// them together. Records forward their identity to the service, so the
// generated code cannot drift from itself.
package srvgen

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/activegrasp/rostrait"
	"github.com/activegrasp/rostrait/msgdef"
	"github.com/activegrasp/rostrait/srvgen/sink"
	"golang.org/x/tools/imports"
)

// rostraitImport is the import path generated code depends on.
const rostraitImport = "github.com/activegrasp/rostrait"

var validate = rostrait.NewValidator()

// Options configures code generation.
type Options struct {
	// Package is the Go package name of the generated file.
	// Default: the ROS package name without underscores.
	Package string `validate:"omitempty,rosname"`

	// Imports maps ROS packages to the Go import paths holding their
	// message types. Every message type outside the service's own package
	// needs an entry.
	// e.g. map[string]string{"geometry_msgs": "example.com/msgs/geometry_msgs"}
	Imports map[string]string `validate:"dive,keys,rosname,endkeys,required"`

	// FileName overrides the output file name.
	// Default: the service's base name in snake case, e.g. "set_bool.go".
	FileName string
}

var builtinGoTypes = map[string]string{
	"bool": "bool", "string": "string",
	"int8": "int8", "uint8": "uint8", "int16": "int16", "uint16": "uint16",
	"int32": "int32", "uint32": "uint32", "int64": "int64", "uint64": "uint64",
	"float32": "float32", "float64": "float64",
	"time": "time.Time", "duration": "time.Duration",
	"byte": "int8", "char": "uint8",
}

// Methods every generated type carries; fields may not take these names.
var reservedNames = map[string]bool{
	"MD5Sum": true, "DataType": true, "ServiceType": true,
	"RequestType": true, "ResponseType": true, "NewRequest": true, "NewResponse": true,
}

// Generate writes the bindings of svc to out. Message types of the service's
// own package that the records use are generated alongside; others are
// referenced through opts.Imports.
func Generate(ctx context.Context, catalog *msgdef.Catalog, svc *msgdef.Service, opts Options, out sink.OutputSink) error {
	if err := validate.Struct(opts); err != nil {
		return err
	}
	if err := svc.Name.Validate(); err != nil {
		return err
	}

	g := &generator{
		catalog: catalog,
		opts:    opts,
		pkg:     svc.Name.Package(),
		imports: map[string]string{rostraitImport: ""},
	}
	data, err := g.file(svc)
	if err != nil {
		return fmt.Errorf("generate %s: %w", svc.Name, err)
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", svc.Name, err)
	}

	name := opts.FileName
	if name == "" {
		name = fileName(svc.Name.Name())
	}
	src, err := imports.Process(name, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return rostrait.Errorf(rostrait.CodeInternal, "format %s: %v", name, err)
	}
	return out.WriteFile(ctx, name, src)
}

type generator struct {
	catalog *msgdef.Catalog
	opts    Options
	pkg     string
	// imports maps import paths to their alias ("" for none).
	imports map[string]string
	// local holds the same-package messages to generate.
	local map[rostrait.TypeName]*typeData
}

func (g *generator) file(svc *msgdef.Service) (*fileData, error) {
	sum, err := g.catalog.ServiceFingerprint(svc)
	if err != nil {
		return nil, err
	}

	goName := svc.Name.Name()
	req, err := g.record(svc.Request, goName, "Request")
	if err != nil {
		return nil, err
	}
	res, err := g.record(svc.Response, goName, "Response")
	if err != nil {
		return nil, err
	}

	data := &fileData{
		Source:  svc.Name,
		Package: g.opts.Package,
		Service: &serviceData{
			GoName:   goName,
			ROSName:  svc.Name,
			MD5Sum:   sum,
			Request:  req,
			Response: res,
		},
	}
	if data.Package == "" {
		data.Package = packageName(g.pkg)
	}

	names := make([]rostrait.TypeName, 0, len(g.local))
	for n := range g.local {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	for _, n := range names {
		if n.Name() == goName || n.Name() == req.GoName || n.Name() == res.GoName {
			return nil, rostrait.Errorf(rostrait.CodeInvalidArgument, "message %s collides with a generated service type", n)
		}
		data.Messages = append(data.Messages, g.local[n])
	}

	for path, alias := range g.imports {
		data.Imports = append(data.Imports, importSpec{Alias: alias, Path: path})
	}
	sort.Slice(data.Imports, func(i, j int) bool { return data.Imports[i].Path < data.Imports[j].Path })
	return data, nil
}

func (g *generator) record(m *msgdef.Message, service, role string) (*typeData, error) {
	t, err := g.typeData(m, service+role, "request")
	if err != nil {
		return nil, err
	}
	if role == "Response" {
		t.Kind = "response"
	}
	t.Service = service
	t.Role = role
	return t, nil
}

// message registers a same-package message, and the ones it uses, for
// generation.
func (g *generator) message(name rostrait.TypeName) error {
	if _, done := g.local[name]; done {
		return nil
	}
	m, ok := g.catalog.Lookup(name)
	if !ok {
		return rostrait.Errorf(rostrait.CodeNotFound, "unknown type %s", name)
	}
	if g.local == nil {
		g.local = make(map[rostrait.TypeName]*typeData)
	}
	// Placeholder first so that self references terminate.
	g.local[name] = nil

	sum, err := g.catalog.Fingerprint(m)
	if err != nil {
		return err
	}
	t, err := g.typeData(m, name.Name(), "message")
	if err != nil {
		return err
	}
	t.MD5Sum = sum
	g.local[name] = t
	return nil
}

func (g *generator) typeData(m *msgdef.Message, goName, kind string) (*typeData, error) {
	t := &typeData{GoName: goName, ROSName: m.Name, Kind: kind}
	seen := make(map[string]string)
	claim := func(goName, rosName string) error {
		if reservedNames[goName] {
			return rostrait.Errorf(rostrait.CodeInvalidArgument, "%s: %s maps to reserved name %s", m.Name, rosName, goName)
		}
		if other, dup := seen[goName]; dup {
			return rostrait.Errorf(rostrait.CodeInvalidArgument, "%s: %s and %s both map to %s", m.Name, other, rosName, goName)
		}
		seen[goName] = rosName
		return nil
	}

	for _, f := range m.Fields {
		name := exportedName(f.Name)
		if err := claim(name, f.Name); err != nil {
			return nil, err
		}
		typ, err := g.goType(f)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", m.Name, f.Name, err)
		}
		t.Fields = append(t.Fields, fieldData{GoName: name, GoType: typ, ROSName: f.Name})
	}
	for _, c := range m.Constants {
		value, err := constValue(c)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", m.Name, c.Name, err)
		}
		t.Constants = append(t.Constants, constData{
			GoName: goName + exportedName(c.Name),
			GoType: builtinGoTypes[c.Type],
			Value:  value,
		})
	}
	return t, nil
}

func (g *generator) goType(f msgdef.Field) (string, error) {
	var elem string
	if f.IsBuiltin() {
		elem = builtinGoTypes[f.BaseType()]
		if f.BaseType() == "time" || f.BaseType() == "duration" {
			g.imports["time"] = ""
		}
	} else {
		name := rostrait.TypeName(f.BaseType())
		switch pkg := name.Package(); {
		case pkg == g.pkg:
			if err := g.message(name); err != nil {
				return "", err
			}
			elem = name.Name()
		default:
			path, ok := g.opts.Imports[pkg]
			if !ok {
				return "", rostrait.Errorf(rostrait.CodeNotFound, "no Go import path for package %s", pkg)
			}
			g.imports[path] = pkg
			elem = pkg + "." + name.Name()
		}
	}

	if !f.IsArray() {
		return elem, nil
	}
	if n, ok := f.ArrayLen(); ok {
		return fmt.Sprintf("[%d]%s", n, elem), nil
	}
	return "[]" + elem, nil
}

// constValue renders a constant's value as a Go literal.
func constValue(c msgdef.Constant) (string, error) {
	switch c.Type {
	case "string":
		return strconv.Quote(c.Value), nil
	case "bool":
		b, err := msgdef.ParseBool(c.Value)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	case "float32", "float64":
		bits := 64
		if c.Type == "float32" {
			bits = 32
		}
		v, err := strconv.ParseFloat(c.Value, bits)
		if err != nil {
			return "", err
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return "", rostrait.Errorf(rostrait.CodeInvalidArgument, "%s is not representable as a Go constant", c.Value)
		}
		return strconv.FormatFloat(v, 'g', -1, bits), nil
	default:
		return c.Value, nil
	}
}
