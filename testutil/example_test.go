package testutil_test

import (
	"testing"

	"github.com/activegrasp/rostrait"
	"github.com/activegrasp/rostrait/activegrasp"
	"github.com/activegrasp/rostrait/middleware"
	"github.com/activegrasp/rostrait/testutil"
)

// TestHandshake_SameBuild shows two components built from the same
// definitions agreeing on a service.
func TestHandshake_SameBuild(t *testing.T) {
	server := testutil.NewPeer(t, "/grasp_server", activegrasp.Reset{})
	client := testutil.NewPeer(t, "/grasp_controller", activegrasp.Reset{})

	if got := server.ServiceName(); got != "/reset" {
		t.Errorf("ServiceName() = %s, want /reset", got)
	}

	res := testutil.Handshake(t, client, server)
	testutil.AssertAccepted(t, res)

	if res.Reply.MD5Sum != activegrasp.ResetMD5Sum {
		t.Errorf("reply md5sum = %s, want %s", res.Reply.MD5Sum, activegrasp.ResetMD5Sum)
	}
	if res.Request.CallerID != "/grasp_controller" {
		t.Errorf("request callerid = %s", res.Request.CallerID)
	}
}

// TestHandshake_StaleBuild shows a component built against an older
// definition being turned away.
func TestHandshake_StaleBuild(t *testing.T) {
	server := testutil.NewPeer(t, "/grasp_server", activegrasp.Reset{})

	stale := server.Contract
	stale.MD5Sum = rostrait.Sum("active_grasp/AABBox[] bbox")
	client := testutil.PeerWithContract("/grasp_controller", stale)

	res := testutil.Handshake(t, client, server)
	testutil.AssertContractMismatch(t, res, activegrasp.ResetDataType)
}

// TestHandshake_WithInterceptor shows a server restricting its callers.
func TestHandshake_WithInterceptor(t *testing.T) {
	server := testutil.NewPeer(t, "/grasp_server", activegrasp.Reset{}).
		WithInterceptor(middleware.AllowCallers("/grasp_controller"))

	res := testutil.Handshake(t, testutil.NewPeer(t, "/grasp_controller", activegrasp.Reset{}), server)
	testutil.AssertAccepted(t, res)

	res = testutil.Handshake(t, testutil.NewPeer(t, "/intruder", activegrasp.Reset{}), server)
	testutil.AssertErrorCode(t, res.ClientErr, rostrait.CodeInvalidArgument)
	testutil.AssertErrorCode(t, res.ServerErr, rostrait.CodeInvalidArgument)
}
