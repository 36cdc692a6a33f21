package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/activegrasp/rostrait"
	"github.com/activegrasp/rostrait/activegrasp"
	"github.com/activegrasp/rostrait/cmd/rostrait/internal/check"
	"github.com/activegrasp/rostrait/cmd/rostrait/internal/gen"
	"github.com/activegrasp/rostrait/cmd/rostrait/internal/globals"
	"github.com/activegrasp/rostrait/cmd/rostrait/internal/vet"
	"github.com/alecthomas/kong"
)

type CLI struct {
	globals.Globals

	Version VersionCmd   `cmd:"" help:"Print version information."`
	Show    ShowCmd      `cmd:"" help:"Show the service contracts compiled into this tool."`
	MD5     check.MD5Cmd `cmd:"" name:"md5" help:"Compute the fingerprint of a message or service definition."`
	Check   check.Cmd    `cmd:"" help:"Compare a definition's fingerprint with the expected one."`
	Gen     gen.Cmd      `cmd:"" help:"Generate Go bindings for a service definition."`
	Vet     vet.Cmd      `cmd:"" help:"Check that records forward their identity to their service."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run(g *globals.Globals) error {
	fmt.Fprintln(g.Out(), Version())
	return nil
}

type ShowCmd struct {
	Name string `arg:"" optional:"" help:"Service or record name; qualified or unique base name."`
	JSON bool   `help:"Print as JSON." short:"j"`
}

func (c *ShowCmd) Run(g *globals.Globals) error {
	contracts := activegrasp.Registry.Contracts()
	if c.Name != "" {
		contract, ok := activegrasp.Registry.Lookup(rostrait.TypeName(c.Name))
		if !ok {
			return rostrait.Errorf(rostrait.CodeNotFound, "no contract for %s", c.Name)
		}
		contracts = []rostrait.Contract{contract}
	}

	out := g.Out()
	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(contracts)
	}
	for _, contract := range contracts {
		fmt.Fprintf(out, "%s\n  md5sum:   %s\n  request:  %s\n  response: %s\n",
			contract.Name, contract.MD5Sum, contract.Request, contract.Response)
	}
	return nil
}

// run parses args and runs the selected command, returning the exit status.
func run(args []string, cli *CLI) int {
	parser, err := kong.New(cli,
		kong.Name("rostrait"),
		kong.Description("Inspect, verify and generate ROS service contracts."),
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return rostrait.CodeInvalidArgument.ExitCode()
	}
	if err := ctx.Run(&cli.Globals); err != nil {
		rpcErr := rostrait.AsError(err)
		cli.Logger().Debug("command failed", "code", rpcErr.Code, "details", rpcErr.Details)
		parser.Errorf("%s", err)
		return rpcErr.Code.ExitCode()
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], &CLI{}))
}
