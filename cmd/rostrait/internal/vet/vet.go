package vet

import (
	"fmt"

	"github.com/activegrasp/rostrait"
	"github.com/activegrasp/rostrait/cmd/rostrait/internal/globals"
	"github.com/activegrasp/rostrait/internal/discover"
)

type Cmd struct {
	Pattern string `arg:"" optional:"" default:"." help:"Packages to check (default: current directory)."`
}

func (c *Cmd) Run(g *globals.Globals) error {
	result, err := discover.Vet(c.Pattern)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}

	out := g.Out()
	for _, s := range result.Services {
		fmt.Fprintf(out, "  %s (%s, %s)\n", s.Name, orMissing(s.Request), orMissing(s.Response))
	}
	for _, f := range result.Findings {
		fmt.Fprintf(out, "✗ %s\n", f)
	}
	if !result.OK() {
		return rostrait.Errorf(rostrait.CodeContractMismatch, "%d record(s) do not forward their identity", len(result.Findings))
	}
	fmt.Fprintf(out, "✓ %d service(s) in %d package(s)\n", len(result.Services), len(result.Packages))
	return nil
}

func orMissing(s string) string {
	if s == "" {
		return "missing"
	}
	return s
}
