package shell

import (
	"context"
	"errors"
	"sort"
)

// ErrExit is returned by the exit command to end the session.
var ErrExit = errors.New("exit")

// Command is a shell command.
type Command interface {
	// Execute runs the command with the given arguments
	Execute(ctx context.Context, args []string) error

	// Usage returns the usage string for the command
	Usage() string

	// Description returns a brief description of what the command does
	Description() string

	// Completions returns candidate arguments for the command
	Completions(input string) []string

	// Aliases returns alternative names for this command
	Aliases() []string
}

// Registry maps command names and aliases to commands.
type Registry struct {
	commands map[string]Command
	aliases  map[string]string // alias -> primary command name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command and its aliases.
func (r *Registry) Register(name string, cmd Command) {
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases() {
		r.aliases[alias] = name
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) (Command, bool) {
	if cmd, exists := r.commands[name]; exists {
		return cmd, true
	}
	if primary, exists := r.aliases[name]; exists {
		cmd, exists := r.commands[primary]
		return cmd, exists
	}
	return nil, false
}

// List returns the registered command names in sorted order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
