package srvgen

import (
	"context"
	"go/parser"
	"go/token"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/activegrasp/rostrait"
	"github.com/activegrasp/rostrait/msgdef"
	"github.com/activegrasp/rostrait/srvgen/sink"
)

var workspace = fstest.MapFS{
	"active_grasp/srv/Reset.srv":     {Data: []byte("---\nAABBox[] bbox\n")},
	"active_grasp/msg/AABBox.msg":    {Data: []byte("geometry_msgs/Point min\ngeometry_msgs/Point max\n")},
	"geometry_msgs/msg/Point.msg":    {Data: []byte("float64 x\nfloat64 y\nfloat64 z\n")},
	"std_srvs/srv/SetBool.srv":       {Data: []byte("bool data\n---\nbool success\nstring message\n")},
	"std_msgs/msg/Header.msg":        {Data: []byte("uint32 seq\ntime stamp\nstring frame_id\n")},
	"robot_msgs/srv/GetStatus.srv":   {Data: []byte("uint8 LEVEL_OK=0\nstring PREFIX=ok\n---\ntime stamp\nduration[2] window\nint32 frame_id\n")},
	"robot_msgs/srv/Broken.srv":      {Data: []byte("---\nint32 data_type\n")},
	"robot_msgs/srv/NeedsHeader.srv": {Data: []byte("Header header\n---\n")},
}

func generate(t *testing.T, name rostrait.TypeName, opts Options) (string, string, error) {
	t.Helper()
	l := msgdef.NewLoader(workspace)
	svc, err := l.LoadService(name)
	if err != nil {
		t.Fatalf("LoadService(%s) error = %v", name, err)
	}
	out := sink.NewMemorySink()
	if err := Generate(context.Background(), l.Catalog(), svc, opts, out); err != nil {
		return "", "", err
	}
	paths := out.Paths()
	if len(paths) != 1 {
		t.Fatalf("wrote %v, want one file", paths)
	}
	src := string(out.Get(paths[0]))
	if _, err := parser.ParseFile(token.NewFileSet(), paths[0], src, parser.AllErrors); err != nil {
		t.Fatalf("generated code does not parse: %v\n%s", err, src)
	}
	return paths[0], src, nil
}

// squash collapses whitespace so that checks ignore gofmt alignment.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestGenerate_Reset(t *testing.T) {
	path, src, err := generate(t, "active_grasp/Reset", Options{
		Imports: map[string]string{"geometry_msgs": "example.com/msgs/geometry_msgs"},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if path != "reset.go" {
		t.Errorf("path = %s, want reset.go", path)
	}

	for _, want := range []string{
		"// Code generated by rostrait gen from active_grasp/Reset. DO NOT EDIT.",
		"package activegrasp",
		`geometry_msgs "example.com/msgs/geometry_msgs"`,
		`"github.com/activegrasp/rostrait"`,
		"type AABBox struct {",
		"Min geometry_msgs.Point `ros:\"min\"`",
		"Bbox []AABBox `ros:\"bbox\"`",
		`"93aa3d73b866f04880927745f4aab303"`,
		`"4dd9de15958dc8059c48f7ba8054e4b8"`,
		"0x4d, 0xd9, 0xde, 0x15",
		"func (ResetRequest) MD5Sum() rostrait.Fingerprint { return Reset{}.MD5Sum() }",
		"return rostrait.ResponseName(Reset{}.DataType())",
		"func (ResetResponse) ServiceType() rostrait.TypeName { return Reset{}.DataType() }",
		"func (Reset) NewRequest() rostrait.Record",
	} {
		if !strings.Contains(squash(src), squash(want)) {
			t.Errorf("generated code missing %q\n%s", want, src)
		}
	}
	if strings.Contains(src, `"time"`) {
		t.Error("unexpected time import")
	}
}

func TestGenerate_Builtins(t *testing.T) {
	path, src, err := generate(t, "robot_msgs/GetStatus", Options{Package: "robot", FileName: "status_gen.go"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if path != "status_gen.go" {
		t.Errorf("path = %s", path)
	}
	for _, want := range []string{
		"package robot",
		`"time"`,
		"GetStatusRequestLevelOk uint8 = 0",
		`GetStatusRequestPrefix string = "ok"`,
		"time.Time",
		"[2]time.Duration",
		"FrameID",
	} {
		if !strings.Contains(squash(src), squash(want)) {
			t.Errorf("generated code missing %q\n%s", want, src)
		}
	}
}

func TestGenerate_StandardService(t *testing.T) {
	_, src, err := generate(t, "std_srvs/SetBool", Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"package stdsrvs", `"09fb03525b03e7ea1fd3992bafd87e16"`, "Success bool"} {
		if !strings.Contains(squash(src), squash(want)) {
			t.Errorf("generated code missing %q", want)
		}
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		service  rostrait.TypeName
		opts     Options
		wantCode rostrait.ErrorCode
		wantMsg  string
	}{
		{"missing import", "active_grasp/Reset", Options{}, rostrait.CodeNotFound, "geometry_msgs"},
		{"header needs import", "robot_msgs/NeedsHeader", Options{}, rostrait.CodeNotFound, "std_msgs"},
		{"reserved field", "robot_msgs/Broken", Options{}, rostrait.CodeInvalidArgument, "reserved"},
		{"bad package", "std_srvs/SetBool", Options{Package: "not-a-name"}, rostrait.CodeInvalidArgument, "Package"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := generate(t, tt.service, tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := rostrait.AsError(err).Code; code != tt.wantCode {
				t.Errorf("code = %s, want %s (%v)", code, tt.wantCode, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestExportedName(t *testing.T) {
	tests := map[string]string{
		"x":         "X",
		"bbox":      "Bbox",
		"frame_id":  "FrameID",
		"LEVEL_OK":  "LevelOk",
		"rgb_url":   "RGBURL",
		"camelCase": "CamelCase",
	}
	for in, want := range tests {
		if got := exportedName(in); got != want {
			t.Errorf("exportedName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"Reset":     "reset.go",
		"SetBool":   "set_bool.go",
		"GetMap":    "get_map.go",
		"AABBox":    "aab_box.go",
		"GetHTTPId": "get_http_id.go",
	}
	for in, want := range tests {
		if got := fileName(in); got != want {
			t.Errorf("fileName(%q) = %q, want %q", in, got, want)
		}
	}
}
