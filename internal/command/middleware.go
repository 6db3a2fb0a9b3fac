package command

// Middleware is a function that wraps a command
type Middleware func(Command) Command

// WrappedCommand represents a command wrapped with a middleware
type WrappedCommand struct {
	Command
	Wrap func(ctx *Context) error
}

// Run executes the wrapped command
func (w *WrappedCommand) Run(ctx *Context) error {
	if w.Wrap != nil {
		return w.Wrap(ctx)
	}
	return w.Command.Run(ctx)
}

// chain carries the middlewares down to subcommands.
type chain struct {
	Command
	mws []Middleware
}

func (c *chain) Subcommands() []Command {
	subs := c.Command.Subcommands()
	out := make([]Command, len(subs))
	for i, sub := range subs {
		out[i] = ApplyMiddlewares(sub, c.mws...)
	}
	return out
}

// ApplyMiddlewares wraps a command and each of its subcommands with any
// number of middlewares. The last middleware runs first.
func ApplyMiddlewares(cmd Command, mws ...Middleware) Command {
	if len(mws) == 0 {
		return cmd
	}
	wrapped := cmd
	for _, mw := range mws {
		wrapped = mw(wrapped)
	}
	return &chain{Command: wrapped, mws: mws}
}
