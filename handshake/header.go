// Package handshake implements the connection header exchange that two
// components perform before a service call, and the identity check that
// rejects the connection when they disagree on the service contract.
//
// A header is a little-endian uint32 length followed by fields, each a
// little-endian uint32 length followed by "key=value".
package handshake

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/activegrasp/rostrait"
	"github.com/gorilla/schema"
)

// DefaultMaxHeaderSize bounds the size of a header read from a peer.
const DefaultMaxHeaderSize = 1 << 20

var (
	validate      = rostrait.NewValidator()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	// Peers add fields of their own (tcp_nodelay, message_definition, ...).
	schemaDecoder.IgnoreUnknownKeys(true)
}

// Fields are the raw key/value pairs of a header.
type Fields map[string]string

// WriteFields encodes f to w in a single write. Keys are written in sorted
// order so the encoding is deterministic.
func WriteFields(w io.Writer, f Fields) error {
	keys := make([]string, 0, len(f))
	for k := range f {
		if k == "" || strings.Contains(k, "=") {
			return rostrait.Errorf(rostrait.CodeInvalidArgument, "invalid header key %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var body bytes.Buffer
	var n [4]byte
	for _, k := range keys {
		field := k + "=" + f[k]
		binary.LittleEndian.PutUint32(n[:], uint32(len(field)))
		body.Write(n[:])
		body.WriteString(field)
	}

	out := make([]byte, 4, 4+body.Len())
	binary.LittleEndian.PutUint32(out, uint32(body.Len()))
	out = append(out, body.Bytes()...)
	_, err := w.Write(out)
	return err
}

// ReadFields decodes one header from r. Headers larger than max bytes are
// rejected before their body is read.
func ReadFields(r io.Reader, max uint32) (Fields, error) {
	var n [4]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return nil, fmt.Errorf("read header length: %w", err)
	}
	size := binary.LittleEndian.Uint32(n[:])
	if size > max {
		return nil, rostrait.Errorf(rostrait.CodeInvalidArgument, "header of %d bytes exceeds limit of %d", size, max)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read header body: %w", err)
	}

	f := make(Fields)
	for len(body) > 0 {
		if len(body) < 4 {
			return nil, rostrait.NewError(rostrait.CodeInvalidArgument, "truncated header field length")
		}
		flen := binary.LittleEndian.Uint32(body[:4])
		body = body[4:]
		if uint64(flen) > uint64(len(body)) {
			return nil, rostrait.Errorf(rostrait.CodeInvalidArgument, "header field of %d bytes overruns header", flen)
		}
		key, value, ok := strings.Cut(string(body[:flen]), "=")
		if !ok || key == "" {
			return nil, rostrait.Errorf(rostrait.CodeInvalidArgument, "malformed header field %q", body[:flen])
		}
		f[key] = value
		body = body[flen:]
	}
	return f, nil
}

// Header is the typed view of the fields used for identity checks.
type Header struct {
	CallerID     string `schema:"callerid" validate:"required"`
	Service      string `schema:"service" validate:"required"`
	MD5Sum       string `schema:"md5sum" validate:"required,md5|eq=*"`
	Type         string `schema:"type"`
	RequestType  string `schema:"request_type"`
	ResponseType string `schema:"response_type"`
	Probe        bool   `schema:"probe"`
	Persistent   bool   `schema:"persistent"`
	Error        string `schema:"error"`
}

// ParseHeader decodes fields into a Header. Unknown fields are ignored.
func ParseHeader(f Fields) (Header, error) {
	values := make(map[string][]string, len(f))
	for k, v := range f {
		values[k] = []string{v}
	}
	var h Header
	if err := schemaDecoder.Decode(&h, values); err != nil {
		return Header{}, rostrait.Errorf(rostrait.CodeInvalidArgument, "decode header: %v", err)
	}
	return h, nil
}

// Fields encodes h, omitting empty values.
func (h Header) Fields() Fields {
	f := make(Fields)
	set := func(k, v string) {
		if v != "" {
			f[k] = v
		}
	}
	set("callerid", h.CallerID)
	set("service", h.Service)
	set("md5sum", h.MD5Sum)
	set("type", h.Type)
	set("request_type", h.RequestType)
	set("response_type", h.ResponseType)
	set("error", h.Error)
	if h.Probe {
		f["probe"] = "1"
	}
	if h.Persistent {
		f["persistent"] = "1"
	}
	return f
}

// validateRequest checks the fields a caller must send.
func (h Header) validateRequest() error {
	return validate.StructPartial(h, "CallerID", "Service", "MD5Sum")
}

// validateReply checks the fields a service must answer with.
func (h Header) validateReply() error {
	return validate.StructPartial(h, "CallerID", "MD5Sum")
}

// identityHeader fills the identity fields of c.
func identityHeader(callerID string, c rostrait.Contract) Header {
	return Header{
		CallerID:     callerID,
		MD5Sum:       c.MD5Sum.String(),
		Type:         string(c.Name),
		RequestType:  string(c.Request),
		ResponseType: string(c.Response),
	}
}
