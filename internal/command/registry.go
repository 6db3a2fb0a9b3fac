package command

var tree = NewTree()

// RegisterCommand adds a command to the global tree
func RegisterCommand(cmd Command) {
	tree.Register(cmd)
}

// ResolveCommand finds the command named by args
func ResolveCommand(args []string) (Command, []string, bool) {
	return tree.Resolve(args)
}

// GetCommand returns a command by name
func GetCommand(name string) (Command, bool) {
	return tree.Get(name)
}

// AllCommands returns the registered top-level commands, sorted by name.
func AllCommands() []Command {
	return tree.TopLevel()
}
