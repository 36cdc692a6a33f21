package activegrasp

import "github.com/activegrasp/rostrait"

// Registry holds every contract of the package.
var Registry = rostrait.MustRegistry(Reset{})

// Identifier names one member of the package's identity table. The set is
// closed: only the exported values below exist.
type Identifier struct {
	name rostrait.TypeName
}

var (
	IdentReset         = Identifier{Reset{}.DataType()}
	IdentResetRequest  = Identifier{ResetRequest{}.DataType()}
	IdentResetResponse = Identifier{ResetResponse{}.DataType()}
)

func (id Identifier) String() string { return string(id.name) }

// FingerprintOf returns the fingerprint of a known identifier. The zero
// Identifier has no entry and yields the zero Fingerprint.
func FingerprintOf(id Identifier) rostrait.Fingerprint {
	f, _ := Registry.FingerprintOf(id.name)
	return f
}

// TypeNameOf returns the qualified name of a known identifier.
func TypeNameOf(id Identifier) rostrait.TypeName {
	return id.name
}
