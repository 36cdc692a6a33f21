// Package globals holds the flags shared by every rostrait command.
package globals

import (
	"io"
	"log/slog"
	"os"

	"github.com/activegrasp/rostrait"
	"github.com/activegrasp/rostrait/internal/logging"
	"github.com/activegrasp/rostrait/msgdef"
)

type Globals struct {
	Path      string `help:"Search path for message and service definitions." env:"ROS_PACKAGE_PATH" placeholder:"DIR:DIR"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." env:"ROSTRAIT_LOG_LEVEL" default:"warn" name:"log-level"`
	LogFormat string `help:"Log format (text, json)." env:"ROSTRAIT_LOG_FORMAT" default:"text" name:"log-format" enum:"text,json"`

	Stdout io.Writer `kong:"-"`
	Stderr io.Writer `kong:"-"`
}

// Out returns where command output goes.
func (g *Globals) Out() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// Logger returns the logger configured by the flags, writing to stderr.
func (g *Globals) Logger() *slog.Logger {
	w := g.Stderr
	if w == nil {
		w = os.Stderr
	}
	return logging.New(logging.Config{Level: g.LogLevel, Format: g.LogFormat}, w)
}

// Loader returns a definition loader over the search path.
func (g *Globals) Loader() (*msgdef.Loader, error) {
	dirs := msgdef.SplitPath(g.Path)
	if len(dirs) == 0 {
		return nil, rostrait.NewError(rostrait.CodeInvalidArgument, "no search path: set --path or ROS_PACKAGE_PATH")
	}
	g.Logger().Debug("search path", slog.Any("dirs", dirs))
	return msgdef.NewDirLoader(dirs...), nil
}
