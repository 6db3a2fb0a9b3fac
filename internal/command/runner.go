package command

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/keshon/bvc-subtree/internal/logger"
	"github.com/keshon/bvc-subtree/internal/subtree"
	"github.com/keshon/bvc-subtree/internal/ui"
)

// ErrUsage marks invalid command line input.
var ErrUsage = errors.New("usage")

// Usagef returns an ErrUsage error with a message.
func Usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// ExitUsage is the status reported for command line errors.
const ExitUsage = 2

// Execute runs the command named by args inside dir and returns the
// process exit status.
func Execute(ctx context.Context, args []string, dir string, stdout, stderr io.Writer) int {
	return execute(ctx, tree, args, dir, stdout, stderr)
}

func execute(ctx context.Context, t *CommandTree, args []string, dir string, stdout, stderr io.Writer) int {
	root := newRoot(t, dir, stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrUsage) {
		fmt.Fprintln(stderr, ui.Fail("error: "+err.Error()))
		return ExitUsage
	}
	kind := subtree.KindOf(err)
	ui.Error(stderr, kind.String(), err)
	return kind.ExitCode()
}

// newRoot builds the cobra tree for t. Argument and flag errors from cobra
// itself are reported as ErrUsage; everything else comes from Run.
func newRoot(t *CommandTree, dir string, stdout, stderr io.Writer) *cobra.Command {
	var level string
	root := &cobra.Command{
		Use:           "bvc",
		Short:         "Block-level version control with embedded subtrees",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cc *cobra.Command, args []string) error {
			if len(args) > 0 {
				return Usagef("unknown command %q for %q", args[0], cc.CommandPath())
			}
			return nil
		},
		RunE: func(cc *cobra.Command, _ []string) error {
			return cc.Help()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&level, "log-level", "", "log level (debug, info, warn, error)")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	for _, cmd := range t.TopLevel() {
		root.AddCommand(toCobra(cmd, dir, &level, stdout, stderr))
	}
	return root
}

func toCobra(cmd Command, dir string, level *string, stdout, stderr io.Writer) *cobra.Command {
	aliases := cmd.Aliases()
	if s := cmd.Short(); s != "" {
		aliases = append([]string{s}, aliases...)
	}
	cc := &cobra.Command{
		Use:     cmd.Usage(),
		Short:   cmd.Brief(),
		Long:    cmd.Help(),
		Aliases: aliases,
		Args:    cobra.ArbitraryArgs,
		RunE: func(cc *cobra.Command, args []string) error {
			c := &Context{
				Args:     args,
				Flags:    cc.Flags(),
				Ctx:      cc.Context(),
				Out:      stdout,
				Err:      stderr,
				Log:      logger.New(stderr, *level),
				WorkDir:  dir,
				LogLevel: *level,
			}
			if c.Ctx == nil {
				c.Ctx = context.Background()
			}
			return cmd.Run(c)
		},
	}
	cmd.Flags(cc.Flags())
	for _, sub := range cmd.Subcommands() {
		cc.AddCommand(toCobra(sub, dir, level, stdout, stderr))
	}
	return cc
}
