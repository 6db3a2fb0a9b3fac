package middleware

import (
	"fmt"

	"github.com/keshon/bvc-subtree/internal/command"
)

// WithBlockIntegrityCheck is a middleware that checks the blocks of HEAD and
// the index before running a command that builds on them
func WithBlockIntegrityCheck() command.Middleware {
	return func(cmd command.Command) command.Command {
		return &command.WrappedCommand{
			Command: cmd,
			Wrap: func(ctx *command.Context) error {
				r, err := ctx.OpenRepo()
				if err != nil {
					return err
				}
				if err := r.VerifyHead(ctx.Ctx); err != nil {
					return fmt.Errorf("repository verification failed: %w\nrun `bvc verify` for details", err)
				}
				return cmd.Run(ctx)
			},
		}
	}
}
