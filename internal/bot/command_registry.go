package bot

import (
	"context"
	"sort"

	"taskbot/internal/errors"
)

// Command handles one slash command. args is the text after the command name.
type Command interface {
	Execute(ctx context.Context, msg Message, args string) (Reply, error)
}

// CommandRegistry manages all available commands
type CommandRegistry struct {
	commands map[string]Command
}

// NewCommandRegistry registers every command against h.
func NewCommandRegistry(h *Handler) *CommandRegistry {
	registry := &CommandRegistry{
		commands: make(map[string]Command),
	}

	start := NewStartCommand()
	registry.Register("start", start)
	registry.Register("help", start)
	registry.Register("add", NewAddCommand(h))
	registry.Register("list", NewListCommand(h))
	registry.Register("done", NewDoneCommand(h))
	registry.Register("delete", NewDeleteCommand(h))
	registry.Register("clear_all", NewClearAllCommand(h))
	registry.Register("done_all", NewDoneAllCommand(h))
	registry.Register("export", NewExportCommand(h))

	return registry
}

// Register adds a command to the registry
func (r *CommandRegistry) Register(name string, command Command) {
	r.commands[name] = command
}

// Names lists registered command names in order.
func (r *CommandRegistry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the named command.
func (r *CommandRegistry) Execute(ctx context.Context, name string, msg Message, args string) (Reply, error) {
	command, exists := r.commands[name]
	if !exists {
		return Reply{}, errors.NewInvalidInputError("command", name, "unknown command")
	}
	return command.Execute(ctx, msg, args)
}
