package srvgen

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/activegrasp/rostrait"
)

var fileTemplate = template.Must(template.New("file").Funcs(template.FuncMap{
	"bytes": fingerprintBytes,
}).Parse(`// Code generated by rostrait gen from {{.Source}}. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{- end}}
)
{{range .Messages}}
{{template "struct" .}}
// Identity of the {{.ROSName}} message.
const (
	{{.GoName}}DataType = "{{.ROSName}}"
	{{.GoName}}MD5Sum   = "{{.MD5Sum}}"
)

func ({{.GoName}}) MD5Sum() rostrait.Fingerprint {
	return rostrait.Fingerprint{ {{bytes .MD5Sum}} }
}

func ({{.GoName}}) DataType() rostrait.TypeName { return {{.GoName}}DataType }
{{end}}
{{- with .Service}}
// Identity of the {{.ROSName}} service.
const (
	{{.GoName}}DataType = "{{.ROSName}}"
	{{.GoName}}MD5Sum   = "{{.MD5Sum}}"
)

// {{.GoName}} is the {{.ROSName}} service.
type {{.GoName}} struct {
	Request  {{.Request.GoName}}
	Response {{.Response.GoName}}
}

func ({{.GoName}}) MD5Sum() rostrait.Fingerprint {
	return rostrait.Fingerprint{ {{bytes .MD5Sum}} }
}

func ({{.GoName}}) DataType() rostrait.TypeName { return {{.GoName}}DataType }

func (s {{.GoName}}) RequestType() rostrait.TypeName  { return s.Request.DataType() }
func (s {{.GoName}}) ResponseType() rostrait.TypeName { return s.Response.DataType() }

func ({{.GoName}}) NewRequest() rostrait.Record  { return {{.Request.GoName}}{} }
func ({{.GoName}}) NewResponse() rostrait.Record { return {{.Response.GoName}}{} }
{{template "record" .Request}}
{{template "record" .Response}}
{{- end}}

{{- define "struct"}}
// {{.GoName}} is the {{.ROSName}} {{.Kind}}.
type {{.GoName}} struct {
{{- range .Fields}}
	{{.GoName}} {{.GoType}} ` + "`ros:\"{{.ROSName}}\"`" + `
{{- end}}
}
{{- if .Constants}}

const (
{{- range .Constants}}
	{{.GoName}} {{.GoType}} = {{.Value}}
{{- end}}
)
{{- end}}
{{end}}

{{- define "record"}}
{{template "struct" .}}
func ({{.GoName}}) MD5Sum() rostrait.Fingerprint { return {{.Service}}{}.MD5Sum() }
func ({{.GoName}}) DataType() rostrait.TypeName {
	return rostrait.{{.Role}}Name({{.Service}}{}.DataType())
}
func ({{.GoName}}) ServiceType() rostrait.TypeName { return {{.Service}}{}.DataType() }
{{end}}
`))

type fileData struct {
	Source   rostrait.TypeName
	Package  string
	Imports  []importSpec
	Messages []*typeData
	Service  *serviceData
}

type importSpec struct {
	Alias string
	Path  string
}

type typeData struct {
	GoName    string
	ROSName   rostrait.TypeName
	Kind      string
	MD5Sum    rostrait.Fingerprint
	Fields    []fieldData
	Constants []constData

	// Set on request and response records only.
	Service string
	Role    string
}

type fieldData struct {
	GoName  string
	GoType  string
	ROSName string
}

type constData struct {
	GoName string
	GoType string
	Value  string
}

type serviceData struct {
	GoName   string
	ROSName  rostrait.TypeName
	MD5Sum   rostrait.Fingerprint
	Request  *typeData
	Response *typeData
}

// fingerprintBytes renders f as the elements of a byte array literal.
func fingerprintBytes(f rostrait.Fingerprint) string {
	parts := make([]string, len(f))
	for i, b := range f {
		parts[i] = fmt.Sprintf("0x%02x", b)
	}
	return strings.Join(parts, ", ")
}
