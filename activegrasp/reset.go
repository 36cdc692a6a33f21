// Package activegrasp holds the service contracts of the active_grasp
// package.
package activegrasp

import (
	"github.com/activegrasp/rostrait"
)

// Identity of the active_grasp/Reset service.
const (
	ResetDataType = "active_grasp/Reset"
	ResetMD5Sum   = "4dd9de15958dc8059c48f7ba8054e4b8"
)

// Reset resets the grasping environment.
type Reset struct {
	Request  ResetRequest
	Response ResetResponse
}

// ResetRequest is the request record of Reset. It carries no fields.
type ResetRequest struct{}

// ResetResponse is the response record of Reset.
//
// Its payload (an active_grasp/AABBox list named bbox, see testdata/) is
// encoded by the host runtime; only its identity is declared here.
type ResetResponse struct{}

func (Reset) MD5Sum() rostrait.Fingerprint {
	// ResetMD5Sum as bytes.
	return rostrait.Fingerprint{
		0x4d, 0xd9, 0xde, 0x15, 0x95, 0x8d, 0xc8, 0x05,
		0x9c, 0x48, 0xf7, 0xba, 0x80, 0x54, 0xe4, 0xb8,
	}
}

func (Reset) DataType() rostrait.TypeName { return ResetDataType }

func (s Reset) RequestType() rostrait.TypeName  { return s.Request.DataType() }
func (s Reset) ResponseType() rostrait.TypeName { return s.Response.DataType() }

func (Reset) NewRequest() rostrait.Record  { return ResetRequest{} }
func (Reset) NewResponse() rostrait.Record { return ResetResponse{} }

// The record identities forward to Reset so the three can never drift apart.

func (ResetRequest) MD5Sum() rostrait.Fingerprint { return Reset{}.MD5Sum() }
func (ResetRequest) DataType() rostrait.TypeName {
	return rostrait.RequestName(Reset{}.DataType())
}
func (ResetRequest) ServiceType() rostrait.TypeName { return Reset{}.DataType() }

func (ResetResponse) MD5Sum() rostrait.Fingerprint { return Reset{}.MD5Sum() }
func (ResetResponse) DataType() rostrait.TypeName {
	return rostrait.ResponseName(Reset{}.DataType())
}
func (ResetResponse) ServiceType() rostrait.TypeName { return Reset{}.DataType() }
