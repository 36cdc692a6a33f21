package gen

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/activegrasp/rostrait"
	"github.com/activegrasp/rostrait/cmd/rostrait/internal/globals"
	"github.com/activegrasp/rostrait/srvgen"
	"github.com/activegrasp/rostrait/srvgen/sink"
)

type Cmd struct {
	Service   string            `arg:"" help:"Service type, e.g. active_grasp/Reset."`
	Out       string            `arg:"" help:"Output directory for the generated file."`
	Package   string            `help:"Go package name (default: derived from the ROS package)." short:"p"`
	Import    map[string]string `help:"Go import path for a ROS package's messages (pkg=path)." short:"i"`
	FileName  string            `help:"Output file name (default: derived from the service)." name:"file"`
	NoClobber bool              `help:"Fail instead of replacing an existing file."`
}

func (c *Cmd) Run(g *globals.Globals) error {
	logger := g.Logger()

	l, err := g.Loader()
	if err != nil {
		return err
	}
	svc, err := l.LoadService(rostrait.TypeName(c.Service))
	if err != nil {
		return err
	}

	outDir, err := filepath.Abs(c.Out)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	out := sink.NewFilesystemSink(outDir)
	out.Overwrite = !c.NoClobber

	opts := srvgen.Options{
		Package:  c.Package,
		Imports:  c.Import,
		FileName: c.FileName,
	}
	if err := srvgen.Generate(context.Background(), l.Catalog(), svc, opts, out); err != nil {
		return err
	}

	logger.Info("generated bindings",
		slog.String("service", c.Service),
		slog.String("dir", outDir))
	fmt.Fprintf(g.Out(), "✓ Generated %s in %s\n", c.Service, outDir)
	return nil
}
