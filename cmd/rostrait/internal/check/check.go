// Package check computes fingerprints from definitions and compares them
// with the values a build declares.
package check

import (
	"fmt"
	"log/slog"

	"github.com/activegrasp/rostrait"
	"github.com/activegrasp/rostrait/activegrasp"
	"github.com/activegrasp/rostrait/cmd/rostrait/internal/globals"
	"github.com/activegrasp/rostrait/msgdef"
)

// Computed is the fingerprint of a definition and the text it was computed
// from.
type Computed struct {
	Name      rostrait.TypeName
	IsService bool
	MD5Sum    rostrait.Fingerprint
	// Text is the MD5 text; for services the request and response texts
	// separated by "---".
	Text string
}

// Compute loads name as a message or, if there is no such message, as a
// service, and fingerprints it.
func Compute(l *msgdef.Loader, name rostrait.TypeName) (*Computed, error) {
	m, msgErr := l.LoadMessage(name)
	if msgErr == nil {
		sum, err := l.Catalog().Fingerprint(m)
		if err != nil {
			return nil, err
		}
		text, err := l.Catalog().MD5Text(m)
		if err != nil {
			return nil, err
		}
		return &Computed{Name: name, MD5Sum: sum, Text: text}, nil
	}
	if rostrait.AsError(msgErr).Code != rostrait.CodeNotFound {
		return nil, msgErr
	}

	s, err := l.LoadService(name)
	if err != nil {
		if rostrait.AsError(err).Code == rostrait.CodeNotFound {
			return nil, msgErr
		}
		return nil, err
	}
	sum, err := l.Catalog().ServiceFingerprint(s)
	if err != nil {
		return nil, err
	}
	req, err := l.Catalog().MD5Text(s.Request)
	if err != nil {
		return nil, err
	}
	res, err := l.Catalog().MD5Text(s.Response)
	if err != nil {
		return nil, err
	}
	return &Computed{Name: name, IsService: true, MD5Sum: sum, Text: req + "\n---\n" + res}, nil
}

type MD5Cmd struct {
	Type string `arg:"" help:"Message or service type, e.g. active_grasp/Reset."`
	Text bool   `help:"Also print the text the fingerprint is computed from." short:"t"`
}

func (c *MD5Cmd) Run(g *globals.Globals) error {
	l, err := g.Loader()
	if err != nil {
		return err
	}
	computed, err := Compute(l, rostrait.TypeName(c.Type))
	if err != nil {
		return err
	}

	fmt.Fprintln(g.Out(), computed.MD5Sum)
	if c.Text {
		fmt.Fprintln(g.Out(), computed.Text)
	}
	return nil
}

type Cmd struct {
	Type   string `arg:"" help:"Message or service type, e.g. active_grasp/Reset."`
	Expect string `help:"Expected md5sum (default: the value compiled into this tool)." short:"e"`
}

func (c *Cmd) Run(g *globals.Globals) error {
	logger := g.Logger()
	name := rostrait.TypeName(c.Type)

	expect := c.Expect
	if expect == "" {
		declared, ok := activegrasp.Registry.FingerprintOf(name)
		if !ok {
			return rostrait.Errorf(rostrait.CodeNotFound, "%s is not compiled into this tool; pass --expect", name)
		}
		expect = declared.String()
	}
	want, err := rostrait.ParseFingerprint(expect)
	if err != nil {
		return err
	}

	l, err := g.Loader()
	if err != nil {
		return err
	}
	computed, err := Compute(l, name)
	if err != nil {
		return err
	}
	logger.Debug("computed fingerprint",
		slog.String("type", string(name)),
		slog.String("md5sum", computed.MD5Sum.String()),
		slog.Bool("service", computed.IsService))

	if computed.MD5Sum != want {
		return &rostrait.ContractMismatchError{
			Service: name,
			Field:   "md5sum",
			Local:   want.String(),
			Remote:  computed.MD5Sum.String(),
		}
	}
	fmt.Fprintf(g.Out(), "✓ %s %s\n", name, computed.MD5Sum)
	return nil
}
