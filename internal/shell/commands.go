package shell

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jirenius/modapp/internal/cli"
)

func usageError(cmd Command) error {
	return fmt.Errorf("usage: %s", cmd.Usage())
}

// loadCommand loads modules explicitly.
type loadCommand struct{ s *Shell }

func (c *loadCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError(c)
	}
	res := c.s.target.LoadModules(ctx, args)
	out, err := c.s.formatter.FormatResult(res)
	if err != nil {
		return err
	}
	c.s.print(out)
	return nil
}

func (c *loadCommand) Usage() string       { return "load <module> [module...]" }
func (c *loadCommand) Description() string { return "Load modules and show the result" }
func (c *loadCommand) Completions(string) []string {
	return c.s.moduleNames()
}
func (c *loadCommand) Aliases() []string { return []string{"l"} }

// statusCommand prints every module record, or the named ones.
type statusCommand struct{ s *Shell }

func (c *statusCommand) Execute(_ context.Context, args []string) error {
	statuses := c.s.target.Status()
	if len(args) > 0 {
		want := make(map[string]bool, len(args))
		for _, name := range args {
			want[name] = true
		}
		filtered := statuses[:0]
		for _, st := range statuses {
			if want[st.Name] {
				filtered = append(filtered, st)
			}
		}
		statuses = filtered
	}
	out, err := c.s.formatter.FormatStatus(statuses)
	if err != nil {
		return err
	}
	c.s.print(out)
	return nil
}

func (c *statusCommand) Usage() string       { return "status [module...]" }
func (c *statusCommand) Description() string { return "Show module states" }
func (c *statusCommand) Completions(string) []string {
	return c.s.moduleNames()
}
func (c *statusCommand) Aliases() []string { return []string{"st", "ls"} }

type deactivateCommand struct{ s *Shell }

func (c *deactivateCommand) Execute(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError(c)
	}
	if err := c.s.target.Deactivate(args[0]); err != nil {
		return err
	}
	c.s.print(cli.FormatSuccess("deactivated "+args[0]) + "\n")
	return nil
}

func (c *deactivateCommand) Usage() string       { return "deactivate <module>" }
func (c *deactivateCommand) Description() string { return "Deactivate a module and everything that requires it" }
func (c *deactivateCommand) Completions(string) []string {
	return c.s.moduleNames()
}
func (c *deactivateCommand) Aliases() []string { return []string{"off"} }

type activateCommand struct{ s *Shell }

func (c *activateCommand) Execute(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError(c)
	}
	if _, err := c.s.target.Activate(ctx, args[0]); err != nil {
		return err
	}
	state, _ := c.s.target.State(args[0])
	c.s.print(cli.FormatSuccess(fmt.Sprintf("activated %s (%s)", args[0], state)) + "\n")
	return nil
}

func (c *activateCommand) Usage() string       { return "activate <module>" }
func (c *activateCommand) Description() string { return "Activate a deactivated module" }
func (c *activateCommand) Completions(string) []string {
	return c.s.moduleNames()
}
func (c *activateCommand) Aliases() []string { return []string{"on"} }

// paramsCommand prints the merged parameters a module is constructed with.
type paramsCommand struct{ s *Shell }

func (c *paramsCommand) Execute(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError(c)
	}
	params := c.s.target.Params(args[0])
	if len(params) == 0 {
		c.s.printf("%s has no parameters\n", args[0])
		return nil
	}
	data, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	c.s.print(string(data))
	return nil
}

func (c *paramsCommand) Usage() string       { return "params <module>" }
func (c *paramsCommand) Description() string { return "Show the parameters of a module" }
func (c *paramsCommand) Completions(string) []string {
	return c.s.moduleNames()
}
func (c *paramsCommand) Aliases() []string { return nil }

type classesCommand struct{ s *Shell }

func (c *classesCommand) Execute(context.Context, []string) error {
	classes := c.s.target.Classes()
	if len(classes) == 0 {
		c.s.print("No module classes registered\n")
		return nil
	}
	c.s.print(strings.Join(classes, "\n") + "\n")
	return nil
}

func (c *classesCommand) Usage() string               { return "classes" }
func (c *classesCommand) Description() string         { return "List registered module classes" }
func (c *classesCommand) Completions(string) []string { return nil }
func (c *classesCommand) Aliases() []string           { return nil }

// eventsCommand toggles printing of lifecycle events.
type eventsCommand struct{ s *Shell }

func (c *eventsCommand) Execute(_ context.Context, args []string) error {
	if c.s.bus == nil {
		return fmt.Errorf("events are not available in this session")
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	switch {
	case len(args) == 0:
		c.s.showEvents = !c.s.showEvents
	case len(args) == 1 && args[0] == "on":
		c.s.showEvents = true
	case len(args) == 1 && args[0] == "off":
		c.s.showEvents = false
	default:
		return usageError(c)
	}

	state := "off"
	if c.s.showEvents {
		state = "on"
	}
	fmt.Fprintf(c.s.out, "events %s\n", state)
	return nil
}

func (c *eventsCommand) Usage() string               { return "events [on|off]" }
func (c *eventsCommand) Description() string         { return "Toggle display of lifecycle events" }
func (c *eventsCommand) Completions(string) []string { return []string{"on", "off"} }
func (c *eventsCommand) Aliases() []string           { return nil }

type helpCommand struct{ s *Shell }

func (c *helpCommand) Execute(context.Context, []string) error {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, name := range c.s.registry.List() {
		cmd, _ := c.s.registry.Get(name)
		fmt.Fprintf(&b, "  %-28s %s", cmd.Usage(), cmd.Description())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			sorted := append([]string(nil), aliases...)
			sort.Strings(sorted)
			fmt.Fprintf(&b, " (aliases: %s)", strings.Join(sorted, ", "))
		}
		b.WriteString("\n")
	}
	c.s.print(b.String())
	return nil
}

func (c *helpCommand) Usage() string               { return "help" }
func (c *helpCommand) Description() string         { return "Show available commands" }
func (c *helpCommand) Completions(string) []string { return nil }
func (c *helpCommand) Aliases() []string           { return []string{"h"} }

type exitCommand struct{}

func (exitCommand) Execute(context.Context, []string) error { return ErrExit }
func (exitCommand) Usage() string                           { return "exit" }
func (exitCommand) Description() string                     { return "Leave the shell" }
func (exitCommand) Completions(string) []string             { return nil }
func (exitCommand) Aliases() []string                       { return []string{"quit", "q"} }
