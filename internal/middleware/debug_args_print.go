package middleware

import (
	"github.com/keshon/bvc-subtree/internal/command"
)

// WithDebugArgsPrint logs the parsed arguments of a command at debug level
func WithDebugArgsPrint() command.Middleware {
	return func(cmd command.Command) command.Command {
		return &command.WrappedCommand{
			Command: cmd,
			Wrap: func(ctx *command.Context) error {
				ctx.Log.Debug().Str("command", cmd.Name()).Strs("args", ctx.Args).Msg("run")
				return cmd.Run(ctx)
			},
		}
	}
}
