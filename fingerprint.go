package rostrait

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
)

// Fingerprint is the 128-bit structural digest of a record or service
// definition. Two definitions with identical structure share a fingerprint.
// It is a compatibility gate, not a security hash.
type Fingerprint [md5.Size]byte

// Wildcard is the md5sum value a caller sends when it does not know the
// service shape (e.g. a generic command-line caller).
const Wildcard = "*"

// ParseFingerprint parses 32 hexadecimal characters.
func ParseFingerprint(s string) (Fingerprint, error) {
	var f Fingerprint
	if len(s) != 2*md5.Size {
		return f, Errorf(CodeInvalidArgument, "fingerprint %q: want %d hex characters, got %d", s, 2*md5.Size, len(s))
	}
	if _, err := hex.Decode(f[:], []byte(s)); err != nil {
		return f, Errorf(CodeInvalidArgument, "fingerprint %q: %v", s, err)
	}
	return f, nil
}

// MustParseFingerprint is like ParseFingerprint but panics on error.
// It is meant for package-level identity tables.
func MustParseFingerprint(s string) Fingerprint {
	f, err := ParseFingerprint(s)
	if err != nil {
		panic("rostrait: " + err.Error())
	}
	return f
}

// Sum computes the fingerprint of an MD5 text.
func Sum(text string) Fingerprint {
	return md5.Sum([]byte(text))
}

// String returns the lowercase hex form used on the wire.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// IsZero reports whether f is the zero value.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := ParseFingerprint(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// TypeName is a fully qualified type name: "package/Name".
type TypeName string

var identPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// NewTypeName joins a package and a base name.
func NewTypeName(pkg, name string) TypeName {
	return TypeName(pkg + "/" + name)
}

// Package returns the part before the slash, or "" if unqualified.
func (n TypeName) Package() string {
	pkg, _, ok := strings.Cut(string(n), "/")
	if !ok {
		return ""
	}
	return pkg
}

// Name returns the base name.
func (n TypeName) Name() string {
	_, name, ok := strings.Cut(string(n), "/")
	if !ok {
		return string(n)
	}
	return name
}

// IsQualified reports whether n carries a package.
func (n TypeName) IsQualified() bool {
	return strings.Contains(string(n), "/")
}

// Validate checks that n is "package/Name" with legal identifiers on both sides.
func (n TypeName) Validate() error {
	if !n.IsQualified() {
		return Errorf(CodeInvalidArgument, "type name %q is not package qualified", string(n))
	}
	if !identPattern.MatchString(n.Package()) {
		return Errorf(CodeInvalidArgument, "type name %q: invalid package %q", string(n), n.Package())
	}
	if !identPattern.MatchString(n.Name()) {
		return Errorf(CodeInvalidArgument, "type name %q: invalid name %q", string(n), n.Name())
	}
	return nil
}

func (n TypeName) String() string { return string(n) }

// Qualify resolves a possibly unqualified name against pkg.
func Qualify(pkg, name string) TypeName {
	if strings.Contains(name, "/") {
		return TypeName(name)
	}
	return NewTypeName(pkg, name)
}

