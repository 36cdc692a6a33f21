package rostrait

import (
	"encoding/json"
	"testing"
)

func TestParseFingerprint(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "4dd9de15958dc8059c48f7ba8054e4b8", false},
		{"upper case", "4DD9DE15958DC8059C48F7BA8054E4B8", false},
		{"empty", "", true},
		{"short", "4dd9de15", true},
		{"long", "4dd9de15958dc8059c48f7ba8054e4b800", true},
		{"not hex", "4dd9de15958dc8059c48f7ba8054e4zz", true},
		{"wildcard", Wildcard, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFingerprint(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFingerprint(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if AsError(err).Code != CodeInvalidArgument {
					t.Errorf("code = %s, want %s", AsError(err).Code, CodeInvalidArgument)
				}
				return
			}
			if f.String() != "4dd9de15958dc8059c48f7ba8054e4b8" {
				t.Errorf("String() = %s", f)
			}
		})
	}
}

func TestMustParseFingerprint_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustParseFingerprint("nope")
}

func TestSum(t *testing.T) {
	if got := Sum("").String(); got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("Sum(\"\") = %s", got)
	}
	if got := Sum("string data").String(); got != "992ce8a1687cec8c8bd883ec73ca41d1" {
		t.Errorf("Sum(\"string data\") = %s", got)
	}
}

func TestFingerprint_IsZero(t *testing.T) {
	var f Fingerprint
	if !f.IsZero() {
		t.Error("zero value should be zero")
	}
	if Sum("").IsZero() {
		t.Error("md5 of empty text is not zero")
	}
}

func TestFingerprint_JSON(t *testing.T) {
	in := struct {
		MD5Sum Fingerprint `json:"md5sum"`
	}{MustParseFingerprint("4dd9de15958dc8059c48f7ba8054e4b8")}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"md5sum":"4dd9de15958dc8059c48f7ba8054e4b8"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var out struct {
		MD5Sum Fingerprint `json:"md5sum"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.MD5Sum != in.MD5Sum {
		t.Errorf("Unmarshal() = %s", out.MD5Sum)
	}
	if err := json.Unmarshal([]byte(`{"md5sum":"short"}`), &out); err == nil {
		t.Error("expected error for invalid fingerprint")
	}
}

func TestTypeName(t *testing.T) {
	n := NewTypeName("active_grasp", "Reset")
	if n != "active_grasp/Reset" {
		t.Fatalf("NewTypeName() = %s", n)
	}
	if n.Package() != "active_grasp" || n.Name() != "Reset" || !n.IsQualified() {
		t.Errorf("parts = %q %q %v", n.Package(), n.Name(), n.IsQualified())
	}

	bare := TypeName("Reset")
	if bare.Package() != "" || bare.Name() != "Reset" || bare.IsQualified() {
		t.Errorf("unqualified parts = %q %q %v", bare.Package(), bare.Name(), bare.IsQualified())
	}
}

func TestTypeName_Validate(t *testing.T) {
	tests := []struct {
		name    TypeName
		wantErr bool
	}{
		{"active_grasp/Reset", false},
		{"std_msgs/Header", false},
		{"Reset", true},
		{"/Reset", true},
		{"active_grasp/", true},
		{"1pkg/Reset", true},
		{"pkg/Re-set", true},
		{"a/b/c", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			if err := tt.name.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQualify(t *testing.T) {
	if got := Qualify("geometry_msgs", "Point"); got != "geometry_msgs/Point" {
		t.Errorf("Qualify() = %s", got)
	}
	if got := Qualify("active_grasp", "geometry_msgs/Point"); got != "geometry_msgs/Point" {
		t.Errorf("Qualify() = %s", got)
	}
}
