package verify

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/keshon/bvc-subtree/internal/command"
	"github.com/keshon/bvc-subtree/internal/middleware"
	"github.com/keshon/bvc-subtree/internal/ui"
)

type Command struct{}

func (c *Command) Name() string                   { return "verify" }
func (c *Command) Short() string                  { return "V" }
func (c *Command) Aliases() []string              { return []string{"check"} }
func (c *Command) Usage() string                  { return "verify" }
func (c *Command) Brief() string                  { return "Verify the blocks of HEAD and the index" }
func (c *Command) Subcommands() []command.Command { return nil }
func (c *Command) Flags(fs *pflag.FlagSet)        {}
func (c *Command) Help() string {
	return `Verify repository blocks.

Every block referenced by the tree at HEAD and by the index is read back
and its hash checked. The first missing or damaged block is reported.`
}

func (c *Command) Run(ctx *command.Context) error {
	r, err := ctx.OpenRepo()
	if err != nil {
		return err
	}
	if err := r.VerifyHead(ctx.Ctx); err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, ui.Pass("All blocks OK"))
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
