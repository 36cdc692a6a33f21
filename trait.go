// Package rostrait declares typed service contracts and the identity values
// (structural fingerprint and type name) that let independently built
// components agree they speak about the same service shape.
//
// A service is defined once; its request and response records forward their
// identity to it:
//
//	func (Reset) MD5Sum() rostrait.Fingerprint       { return resetMD5Sum }
//	func (ResetRequest) MD5Sum() rostrait.Fingerprint { return Reset{}.MD5Sum() }
//
// Lookups are generic over the type, so asking for an unknown identity is a
// build error:
//
//	rostrait.MD5Sum[activegrasp.ResetRequest]()
package rostrait

import (
	"go.uber.org/multierr"
)

// Trait is implemented by every service and record type carrying an identity.
type Trait interface {
	MD5Sum() Fingerprint
	DataType() TypeName
}

// Record is a request or response record of a service.
type Record interface {
	Trait
	// ServiceType names the service the record belongs to.
	ServiceType() TypeName
}

// Service is a named pairing of a request and a response record.
type Service interface {
	Trait
	RequestType() TypeName
	ResponseType() TypeName
	NewRequest() Record
	NewResponse() Record
}

// MD5Sum returns the fingerprint of T.
func MD5Sum[T Trait]() Fingerprint {
	var zero T
	return zero.MD5Sum()
}

// DataType returns the type name of T.
func DataType[T Trait]() TypeName {
	var zero T
	return zero.DataType()
}

// Contract is the identity of one service as exchanged with a peer.
type Contract struct {
	Name     TypeName    `json:"name"`
	MD5Sum   Fingerprint `json:"md5sum"`
	Request  TypeName    `json:"request_type"`
	Response TypeName    `json:"response_type"`
}

// RequestName returns the record name derived from a service name.
func RequestName(service TypeName) TypeName { return service + "Request" }

// ResponseName returns the record name derived from a service name.
func ResponseName(service TypeName) TypeName { return service + "Response" }

// Describe builds the contract of s and checks that its records forward
// their identity to it. Every violation is reported.
func Describe(s Service) (Contract, error) {
	name := s.DataType()
	if err := name.Validate(); err != nil {
		return Contract{}, err
	}

	c := Contract{
		Name:     name,
		MD5Sum:   s.MD5Sum(),
		Request:  s.RequestType(),
		Response: s.ResponseType(),
	}

	var errs error
	if c.MD5Sum.IsZero() {
		errs = multierr.Append(errs, Errorf(CodeInvalidArgument, "service %s has no fingerprint", name))
	}
	errs = multierr.Append(errs, checkRecord(c, "request", s.NewRequest(), c.Request, RequestName(name)))
	errs = multierr.Append(errs, checkRecord(c, "response", s.NewResponse(), c.Response, ResponseName(name)))
	if errs != nil {
		return Contract{}, errs
	}
	return c, nil
}

func checkRecord(c Contract, role string, r Record, declared, derived TypeName) error {
	if r == nil {
		return Errorf(CodeInvalidArgument, "service %s has no %s record", c.Name, role)
	}
	var errs error
	if got := r.MD5Sum(); got != c.MD5Sum {
		errs = multierr.Append(errs, &ContractMismatchError{
			Service: c.Name, Field: role + " md5sum", Local: c.MD5Sum.String(), Remote: got.String(),
		})
	}
	if got := r.ServiceType(); got != c.Name {
		errs = multierr.Append(errs, &ContractMismatchError{
			Service: c.Name, Field: role + " service type", Local: string(c.Name), Remote: string(got),
		})
	}
	if got := r.DataType(); got != derived {
		errs = multierr.Append(errs, &ContractMismatchError{
			Service: c.Name, Field: role + " type", Local: string(derived), Remote: string(got),
		})
	}
	if declared != derived {
		errs = multierr.Append(errs, &ContractMismatchError{
			Service: c.Name, Field: "declared " + role + " type", Local: string(derived), Remote: string(declared),
		})
	}
	return errs
}
