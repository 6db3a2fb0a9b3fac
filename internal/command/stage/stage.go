package stage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/keshon/bvc-subtree/internal/command"
	"github.com/keshon/bvc-subtree/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string                   { return "stage" }
func (c *Command) Short() string                  { return "a" }
func (c *Command) Aliases() []string              { return []string{"add"} }
func (c *Command) Usage() string                  { return "stage [<file|dir|glob>...]" }
func (c *Command) Brief() string                  { return "Stage files or directories for the next commit" }
func (c *Command) Subcommands() []command.Command { return nil }
func (c *Command) Help() string {
	return `Stage changes for commit.

Usage:
  stage              - stage the current directory
  stage -A or --all  - stage the whole working tree, including deletions
  stage <path>       - stage a specific file or directory
  stage '*.go'       - stage files matching a glob

Paths that no longer exist are removed from the index.`
}

func (c *Command) Flags(fs *pflag.FlagSet) {
	fs.BoolP("all", "A", false, "stage the whole working tree")
}

func (c *Command) Run(ctx *command.Context) error {
	all, _ := ctx.Flags.GetBool("all")

	r, err := ctx.OpenRepo()
	if err != nil {
		return err
	}
	unlock, err := r.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	var paths []string
	switch {
	case all:
		paths = []string{r.Config.WorkingTreeDir}
	case len(ctx.Args) == 0:
		paths = []string{ctx.WorkDir}
	}
	for _, arg := range ctx.Args {
		if !strings.ContainsAny(arg, "*?[") {
			paths = append(paths, ctx.Path(arg))
			continue
		}
		matches, err := filepath.Glob(ctx.Path(arg))
		if err != nil {
			return command.Usagef("bad pattern %q: %v", arg, err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no matching files to add")
	}

	staged, removed, err := r.Stage(ctx.Ctx, paths)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Staged %d file(s)", len(staged))
	if len(removed) > 0 {
		fmt.Fprintf(ctx.Out, ", removed %d", len(removed))
	}
	fmt.Fprintln(ctx.Out)
	return nil
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithDebugArgsPrint(),
		),
	)
}
