package activegrasp_test

import (
	"testing"
	"testing/fstest"

	"github.com/activegrasp/rostrait"
	"github.com/activegrasp/rostrait/activegrasp"
	"github.com/activegrasp/rostrait/msgdef"
	"github.com/activegrasp/rostrait/testutil"
)

func TestReset_Identity(t *testing.T) {
	want := rostrait.MustParseFingerprint(activegrasp.ResetMD5Sum)

	tests := []struct {
		name     string
		sum      rostrait.Fingerprint
		dataType rostrait.TypeName
	}{
		{"service", rostrait.MD5Sum[activegrasp.Reset](), "active_grasp/Reset"},
		{"request", rostrait.MD5Sum[activegrasp.ResetRequest](), "active_grasp/ResetRequest"},
		{"response", rostrait.MD5Sum[activegrasp.ResetResponse](), "active_grasp/ResetResponse"},
	}
	types := []rostrait.TypeName{
		rostrait.DataType[activegrasp.Reset](),
		rostrait.DataType[activegrasp.ResetRequest](),
		rostrait.DataType[activegrasp.ResetResponse](),
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.sum != want {
				t.Errorf("MD5Sum = %s, want %s", tt.sum, want)
			}
			if types[i] != tt.dataType {
				t.Errorf("DataType = %s, want %s", types[i], tt.dataType)
			}
		})
	}
}

func TestReset_RecordsForward(t *testing.T) {
	var svc activegrasp.Reset
	if got := (activegrasp.ResetRequest{}).ServiceType(); got != svc.DataType() {
		t.Errorf("ResetRequest.ServiceType() = %s", got)
	}
	if got := (activegrasp.ResetResponse{}).ServiceType(); got != svc.DataType() {
		t.Errorf("ResetResponse.ServiceType() = %s", got)
	}
	if svc.RequestType() != svc.NewRequest().DataType() {
		t.Errorf("RequestType() = %s, NewRequest().DataType() = %s", svc.RequestType(), svc.NewRequest().DataType())
	}
	if svc.ResponseType() != svc.NewResponse().DataType() {
		t.Errorf("ResponseType() = %s, NewResponse().DataType() = %s", svc.ResponseType(), svc.NewResponse().DataType())
	}
}

func TestReset_Idempotent(t *testing.T) {
	first := activegrasp.Reset{}.MD5Sum()
	for i := 0; i < 3; i++ {
		if got := (activegrasp.Reset{}).MD5Sum(); got != first {
			t.Fatalf("call %d: MD5Sum = %s, want %s", i, got, first)
		}
	}
	if first.String() != activegrasp.ResetMD5Sum {
		t.Errorf("MD5Sum().String() = %s, want %s", first, activegrasp.ResetMD5Sum)
	}
}

func TestReset_Describe(t *testing.T) {
	c, err := rostrait.Describe(activegrasp.Reset{})
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	want := rostrait.Contract{
		Name:     "active_grasp/Reset",
		MD5Sum:   rostrait.MustParseFingerprint(activegrasp.ResetMD5Sum),
		Request:  "active_grasp/ResetRequest",
		Response: "active_grasp/ResetResponse",
	}
	if c != want {
		t.Errorf("Describe() = %+v, want %+v", c, want)
	}
}

func TestIdentifier(t *testing.T) {
	sum := rostrait.MustParseFingerprint(activegrasp.ResetMD5Sum)
	tests := []struct {
		id   activegrasp.Identifier
		name rostrait.TypeName
		sum  rostrait.Fingerprint
	}{
		{activegrasp.IdentReset, "active_grasp/Reset", sum},
		{activegrasp.IdentResetRequest, "active_grasp/ResetRequest", sum},
		{activegrasp.IdentResetResponse, "active_grasp/ResetResponse", sum},
		{activegrasp.Identifier{}, "", rostrait.Fingerprint{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			if got := activegrasp.TypeNameOf(tt.id); got != tt.name {
				t.Errorf("TypeNameOf() = %s, want %s", got, tt.name)
			}
			if got := activegrasp.FingerprintOf(tt.id); got != tt.sum {
				t.Errorf("FingerprintOf() = %s, want %s", got, tt.sum)
			}
			if tt.id.String() != string(tt.name) {
				t.Errorf("String() = %s", tt.id)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	if n := activegrasp.Registry.Len(); n != 1 {
		t.Fatalf("Registry.Len() = %d, want 1", n)
	}
	for _, name := range []rostrait.TypeName{"active_grasp/Reset", "Reset"} {
		c, ok := activegrasp.Registry.Lookup(name)
		if !ok {
			t.Errorf("Lookup(%s) not found", name)
			continue
		}
		if c.MD5Sum.String() != activegrasp.ResetMD5Sum {
			t.Errorf("Lookup(%s).MD5Sum = %s", name, c.MD5Sum)
		}
	}
	if _, ok := activegrasp.Registry.Lookup("active_grasp/Grasp"); ok {
		t.Error("Lookup(active_grasp/Grasp) found a contract")
	}
}

// The compiled fingerprint must match the one computed from the definitions
// in testdata.
func TestReset_MatchesDefinition(t *testing.T) {
	l := msgdef.NewDirLoader("testdata")
	svc, err := l.LoadService(activegrasp.ResetDataType)
	if err != nil {
		t.Fatalf("LoadService() error = %v", err)
	}
	got, err := l.Catalog().ServiceFingerprint(svc)
	if err != nil {
		t.Fatalf("ServiceFingerprint() error = %v", err)
	}
	if got != rostrait.MD5Sum[activegrasp.Reset]() {
		t.Errorf("computed %s, compiled %s", got, activegrasp.ResetMD5Sum)
	}
}

func TestReset_ModifiedDefinition(t *testing.T) {
	const (
		reset  = "---\nAABBox[] bbox\n"
		aabbox = "geometry_msgs/Point min\ngeometry_msgs/Point max\n"
		point  = "float64 x\nfloat64 y\nfloat64 z\n"
	)
	tests := []struct {
		name   string
		reset  string
		aabbox string
	}{
		{"request field added", "bool hard\n" + reset, aabbox},
		{"request field typed differently", "int32 hard\n" + reset, aabbox},
		{"nested response field added", reset, aabbox + "string frame_id\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := msgdef.NewLoader(fstest.MapFS{
				"active_grasp/srv/Reset.srv":  {Data: []byte(tt.reset)},
				"active_grasp/msg/AABBox.msg": {Data: []byte(tt.aabbox)},
				"geometry_msgs/msg/Point.msg": {Data: []byte(point)},
			})
			svc, err := l.LoadService(activegrasp.ResetDataType)
			if err != nil {
				t.Fatalf("LoadService() error = %v", err)
			}
			sum, err := l.Catalog().ServiceFingerprint(svc)
			if err != nil {
				t.Fatalf("ServiceFingerprint() error = %v", err)
			}
			if sum.String() == activegrasp.ResetMD5Sum {
				t.Fatal("modified definition kept the original fingerprint")
			}

			compiled := testutil.NewPeer(t, "/grasp_planner", activegrasp.Reset{})
			modified := testutil.PeerWithContract("/grasp_server", rostrait.Contract{
				Name:     activegrasp.ResetDataType,
				MD5Sum:   sum,
				Request:  rostrait.RequestName(activegrasp.ResetDataType),
				Response: rostrait.ResponseName(activegrasp.ResetDataType),
			})
			testutil.AssertContractMismatch(t, testutil.Handshake(t, compiled, modified), activegrasp.ResetDataType)
		})
	}
}

func TestReset_Handshake(t *testing.T) {
	client := testutil.NewPeer(t, "/grasp_planner", activegrasp.Reset{})
	server := testutil.NewPeer(t, "/grasp_server", activegrasp.Reset{})
	r := testutil.Handshake(t, client, server)
	testutil.AssertAccepted(t, r)
	if r.Request.MD5Sum != activegrasp.ResetMD5Sum {
		t.Errorf("server saw md5sum %s", r.Request.MD5Sum)
	}
}
