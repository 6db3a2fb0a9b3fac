package init

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/keshon/bvc-subtree/internal/command"
	"github.com/keshon/bvc-subtree/internal/config"
	"github.com/keshon/bvc-subtree/internal/middleware"
	"github.com/keshon/bvc-subtree/internal/repo"
	"github.com/keshon/bvc-subtree/internal/repo/meta"
)

type Command struct{}

func (c *Command) Name() string                   { return "init" }
func (c *Command) Short() string                  { return "i" }
func (c *Command) Aliases() []string              { return []string{"initialize"} }
func (c *Command) Usage() string                  { return "init [options]" }
func (c *Command) Brief() string                  { return "Initialize a new repository" }
func (c *Command) Subcommands() []command.Command { return nil }
func (c *Command) Help() string {
	return `Initialize a new repository in the current directory.

Examples:
  bvc init
  bvc init -q
  bvc init --initial-branch=master`
}

func (c *Command) Flags(fs *pflag.FlagSet) {
	fs.BoolP("quiet", "q", false, "suppress normal output")
	fs.StringP("initial-branch", "b", config.DefaultBranch, "name of the initial branch")
}

func (c *Command) Run(ctx *command.Context) error {
	quiet, _ := ctx.Flags.GetBool("quiet")
	branch, _ := ctx.Flags.GetString("initial-branch")
	if err := meta.ValidBranchName(branch); err != nil {
		return command.Usagef("%v", err)
	}

	r, err := repo.Init(ctx.WorkDir, repo.WithLogger(ctx.Log))
	if err != nil {
		if errors.Is(err, repo.ErrExists) {
			if !quiet {
				fmt.Fprintf(ctx.Out, "Repository already exists in %q\n", ctx.WorkDir)
			}
			return nil
		}
		return err
	}

	if branch != config.DefaultBranch {
		if _, err := r.Meta.SetHeadRef(branch); err != nil {
			return fmt.Errorf("set initial branch %q: %w", branch, err)
		}
		if err := r.Meta.SetLastCommitID(branch, ""); err != nil {
			return err
		}
		if err := r.FS.Remove(filepath.Join(r.Config.BranchesDir(), config.DefaultBranch)); err != nil {
			return err
		}
	}

	if !quiet {
		fmt.Fprintf(ctx.Out, "Initialized empty repository in %q\n", r.Config.RepoRoot)
	}
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
