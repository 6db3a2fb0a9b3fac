package commit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/keshon/bvc-subtree/internal/command"
	"github.com/keshon/bvc-subtree/internal/middleware"
	"github.com/keshon/bvc-subtree/internal/repo"
	"github.com/keshon/bvc-subtree/internal/ui"
)

type Command struct{}

func (c *Command) Name() string  { return "commit" }
func (c *Command) Short() string { return "c" }
func (c *Command) Brief() string { return "Commit staged changes to the current branch" }
func (c *Command) Usage() string { return `commit -m "<message>"` }
func (c *Command) Help() string {
	return `Create a new commit from the index.

Usage:
  commit -m "<message>"            - commit with a given message
  commit -m "<subject>" -m "<body>" - each -m adds a paragraph`
}
func (c *Command) Aliases() []string              { return []string{"ci"} }
func (c *Command) Subcommands() []command.Command { return nil }
func (c *Command) Flags(fs *pflag.FlagSet) {
	fs.StringArrayP("message", "m", nil, "commit message; repeat for more paragraphs")
}

func (c *Command) Run(ctx *command.Context) error {
	messages, _ := ctx.Flags.GetStringArray("message")
	if len(messages) == 0 && len(ctx.Args) > 0 {
		messages = []string{strings.Join(ctx.Args, " ")}
	}
	if len(messages) == 0 {
		return command.Usagef("commit message required (use -m)")
	}
	message := strings.Join(messages, "\n\n")

	r, err := ctx.OpenRepo()
	if err != nil {
		return err
	}
	unlock, err := r.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	cmt, err := r.Commit(message)
	if errors.Is(err, repo.ErrNothingToCommit) {
		fmt.Fprintln(ctx.Out, "Nothing to commit")
		return nil
	}
	if err != nil {
		return err
	}

	_, branch, _ := r.Head()
	fmt.Fprintf(ctx.Out, "[%s %s] %s\n", branch, ui.Hash(cmt.ID), cmt.Subject())
	return nil
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithDebugArgsPrint(),
			middleware.WithBlockIntegrityCheck(),
		),
	)
}
