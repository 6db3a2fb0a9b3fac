package command

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/keshon/bvc-subtree/internal/config"
	"github.com/keshon/bvc-subtree/internal/logger"
	"github.com/keshon/bvc-subtree/internal/repo"
)

// Command represents a cli command
type Command interface {
	Name() string
	// Short is a one letter alias, or "".
	Short() string
	Aliases() []string
	Usage() string
	Brief() string
	Help() string
	Subcommands() []Command
	Flags(fs *pflag.FlagSet)
	Run(ctx *Context) error
}

// Context represents a cli context
type Context struct {
	Args  []string
	Flags *pflag.FlagSet
	Ctx   context.Context
	Out   io.Writer
	Err   io.Writer
	Log   zerolog.Logger
	// WorkDir is the directory the command runs in.
	WorkDir string
	// LogLevel is the level given on the command line, "" when unset.
	LogLevel string
}

// Path resolves a user supplied path against WorkDir.
func (c *Context) Path(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.WorkDir, p)
}

// OpenRepo opens the repository containing WorkDir. Without an explicit
// --log-level the logger follows the repository's log.level setting.
// Spinners are only drawn when Err is a file.
func (c *Context) OpenRepo() (*repo.Repository, error) {
	root, err := config.ResolveWorkingTreeRoot(c.WorkDir)
	if err != nil {
		return nil, err
	}
	opts := []repo.Option{repo.WithLogger(c.Log)}
	if f, ok := c.Err.(*os.File); ok {
		opts = append(opts, repo.WithProgress(f))
	}
	r, err := repo.Open(root, opts...)
	if err != nil {
		return nil, err
	}
	if c.LogLevel == "" {
		c.Log = logger.New(c.Err, r.Config.Settings.LogLevel)
		r.Log = c.Log
	}
	return r, nil
}
