package subtree

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/keshon/bvc-subtree/internal/command"
	"github.com/keshon/bvc-subtree/internal/middleware"
	"github.com/keshon/bvc-subtree/internal/subtree"
	"github.com/keshon/bvc-subtree/internal/ui"
)

type Command struct{}

func (c *Command) Name() string      { return "subtree" }
func (c *Command) Short() string     { return "" }
func (c *Command) Aliases() []string { return nil }
func (c *Command) Usage() string     { return "subtree <add|merge|split|pull|push> --prefix=<dir> [options]" }
func (c *Command) Brief() string     { return "Embed another history below a directory and keep it in sync" }
func (c *Command) Help() string {
	return `Embed the content of another commit below a directory of this tree and
merge later versions of it.

The sync point of each directory is recorded in commit trailers
(embedded-dir, embedded-split, embedded-mainline) so that later merges can
find it again. With --squash the imported history is replaced by a single
synthesized commit per sync.

Usage:
  subtree add   --prefix=<dir> [--squash] [-m <msg>] <commit>
  subtree add   --prefix=<dir> [--squash] [-m <msg>] <repository> <ref>
  subtree merge --prefix=<dir> [--squash] [-m <msg>] [--remote=<repo>] <commit>
  subtree merge --prefix=<dir> [--squash] [-m <msg>] <repository> <ref>
  subtree split --prefix=<dir> [<commit>]
  subtree pull  --prefix=<dir> <repository> <ref>
  subtree push  --prefix=<dir> <repository> <ref>

<dir> is relative to the working tree root.`
}
func (c *Command) Flags(fs *pflag.FlagSet) {}

func (c *Command) Subcommands() []command.Command {
	return []command.Command{
		&opCommand{name: "add", brief: "Import a commit below a new directory", build: buildAdd},
		&opCommand{name: "merge", brief: "Merge a later commit into an embedded directory", build: buildMerge},
		&opCommand{name: "split", brief: "Extract the history of a directory", build: buildSplit},
		&opCommand{name: "pull", brief: "Fetch and merge into an embedded directory", build: buildPull},
		&opCommand{name: "push", brief: "Split and publish an embedded directory", build: buildPush},
	}
}

func (c *Command) Run(ctx *command.Context) error {
	if len(ctx.Args) == 0 {
		return command.Usagef("subtree needs a subcommand: add, merge, split, pull or push")
	}
	return command.Usagef("unknown subtree subcommand %q", ctx.Args[0])
}

type options struct {
	prefix  string
	squash  bool
	message string
	rejoin  bool
	remote  string
	args    []string
}

type opCommand struct {
	name  string
	brief string
	build func(options) (subtree.Operation, error)
}

func (c *opCommand) Name() string                   { return c.name }
func (c *opCommand) Short() string                  { return "" }
func (c *opCommand) Aliases() []string              { return nil }
func (c *opCommand) Usage() string                  { return c.name + " --prefix=<dir> [options] [args]" }
func (c *opCommand) Brief() string                  { return c.brief }
func (c *opCommand) Help() string                   { return c.brief + "." }
func (c *opCommand) Subcommands() []command.Command { return nil }

func (c *opCommand) Flags(fs *pflag.FlagSet) {
	fs.StringP("prefix", "P", "", "directory of the embedded tree")
	fs.Bool("squash", false, "replace the imported history with one squash commit")
	fs.StringP("message", "m", "", "commit message")
	if c.name == "add" {
		fs.Bool("rejoin", false, "record the sync point of content already below the prefix")
	}
	if c.name == "merge" {
		fs.String("remote", "", "repository to fetch split commits missing locally")
	}
}

func (c *opCommand) Run(ctx *command.Context) error {
	opts := options{args: ctx.Args}
	opts.prefix, _ = ctx.Flags.GetString("prefix")
	opts.squash, _ = ctx.Flags.GetBool("squash")
	opts.message, _ = ctx.Flags.GetString("message")
	if c.name == "add" {
		opts.rejoin, _ = ctx.Flags.GetBool("rejoin")
	}
	if c.name == "merge" {
		opts.remote, _ = ctx.Flags.GetString("remote")
	}
	if opts.prefix == "" {
		return command.Usagef("subtree %s: --prefix is required", c.name)
	}
	op, err := c.build(opts)
	if err != nil {
		return err
	}

	r, err := ctx.OpenRepo()
	if err != nil {
		return err
	}
	d, err := subtree.Open(r)
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.Run(ctx.Ctx, op)
	if errors.Is(err, subtree.ErrMergeConflict) {
		for _, p := range res.Conflicts {
			fmt.Fprintf(ctx.Out, "CONFLICT: %s\n", ui.Fail(p))
		}
		return err
	}
	if err != nil {
		return err
	}
	report(ctx, op, opts.prefix, res)
	return nil
}

func report(ctx *command.Context, op subtree.Operation, prefix string, res subtree.Result) {
	if res.Warning != "" {
		ui.Warning(ctx.Err, "%s", res.Warning)
	}
	if res.NoOp || res.Commit == nil {
		return
	}
	if res.Squash != nil {
		fmt.Fprintf(ctx.Out, "Squashed into %s\n", ui.Hash(res.Squash.ID))
	}
	switch op.Name() {
	case "add":
		fmt.Fprintf(ctx.Out, "Added dir '%s'\n", prefix)
	default:
		fmt.Fprintf(ctx.Out, "Merged into '%s' as %s\n", prefix, ui.Hash(res.Commit.ID))
	}
}

// source splits positional args into a commit or a repository and ref.
func source(name string, args []string) (commit, remote, ref string, err error) {
	switch len(args) {
	case 1:
		return args[0], "", "", nil
	case 2:
		return "", args[0], args[1], nil
	}
	return "", "", "", command.Usagef("subtree %s needs <commit> or <repository> <ref>", name)
}

func buildAdd(o options) (subtree.Operation, error) {
	commit, remote, ref, err := source("add", o.args)
	if err != nil {
		return nil, err
	}
	return subtree.AddOp{AddOptions: subtree.AddOptions{
		Prefix:  o.prefix,
		Commit:  commit,
		Remote:  remote,
		Ref:     ref,
		Squash:  o.squash,
		Message: o.message,
		Rejoin:  o.rejoin,
	}}, nil
}

func buildMerge(o options) (subtree.Operation, error) {
	commit, remote, ref, err := source("merge", o.args)
	if err != nil {
		return nil, err
	}
	if remote == "" {
		remote = o.remote
	}
	return subtree.MergeOp{MergeOptions: subtree.MergeOptions{
		Prefix:  o.prefix,
		Commit:  commit,
		Remote:  remote,
		Ref:     ref,
		Squash:  o.squash,
		Message: o.message,
	}}, nil
}

func buildSplit(o options) (subtree.Operation, error) {
	if len(o.args) > 1 {
		return nil, command.Usagef("subtree split takes at most one commit")
	}
	op := subtree.SplitOp{Prefix: o.prefix, Commit: "HEAD"}
	if len(o.args) == 1 {
		op.Commit = o.args[0]
	}
	return op, nil
}

func buildPull(o options) (subtree.Operation, error) {
	if len(o.args) != 2 {
		return nil, command.Usagef("subtree pull needs <repository> <ref>")
	}
	return subtree.PullOp{Prefix: o.prefix, Remote: o.args[0], Ref: o.args[1], Squash: o.squash, Message: o.message}, nil
}

func buildPush(o options) (subtree.Operation, error) {
	if len(o.args) != 2 {
		return nil, command.Usagef("subtree push needs <repository> <ref>")
	}
	return subtree.PushOp{Prefix: o.prefix, Remote: o.args[0], Ref: o.args[1]}, nil
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithDebugArgsPrint(),
		),
	)
}
