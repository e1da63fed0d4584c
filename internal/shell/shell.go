package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/jirenius/modapp/internal/events"
	"github.com/jirenius/modapp/internal/formatting"
	"github.com/jirenius/modapp/internal/module"
	"github.com/jirenius/modapp/internal/orchestrator"
	"github.com/jirenius/modapp/pkg/logging"
)

// commandTimeout bounds a single command. Loads of slow providers are the
// only commands that get close to it.
const commandTimeout = 5 * time.Minute

const historyFileName = ".modapp_shell_history"

// Target is the orchestrator surface the shell drives.
type Target interface {
	LoadModules(ctx context.Context, names []string) orchestrator.Result
	Status() []orchestrator.ModuleStatus
	State(name string) (module.State, bool)
	Deactivate(name string) error
	Activate(ctx context.Context, name string) (any, error)
	Params(name string) module.Params
	Classes() []string
}

// Config holds the dependencies of a Shell.
type Config struct {
	Target    Target
	Formatter formatting.Formatter
	// Bus is optional. When set, lifecycle events can be shown with the
	// events command.
	Bus *events.Bus
	// Output defaults to os.Stdout.
	Output io.Writer
	// HistoryFile defaults to a file in the temp directory.
	HistoryFile string
}

// Shell is an interactive prompt for loading, inspecting and toggling
// modules of a running orchestrator.
type Shell struct {
	target    Target
	formatter formatting.Formatter
	bus       *events.Bus
	history   string
	registry  *Registry

	mu         sync.Mutex
	out        io.Writer
	showEvents bool
}

// New creates a shell with every command registered.
func New(cfg Config) *Shell {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	history := cfg.HistoryFile
	if history == "" {
		history = filepath.Join(os.TempDir(), historyFileName)
	}

	s := &Shell{
		target:    cfg.Target,
		formatter: cfg.Formatter,
		bus:       cfg.Bus,
		history:   history,
		registry:  NewRegistry(),
		out:       out,
	}
	s.registerCommands()
	return s
}

func (s *Shell) registerCommands() {
	s.registry.Register("load", &loadCommand{s})
	s.registry.Register("status", &statusCommand{s})
	s.registry.Register("deactivate", &deactivateCommand{s})
	s.registry.Register("activate", &activateCommand{s})
	s.registry.Register("params", &paramsCommand{s})
	s.registry.Register("classes", &classesCommand{s})
	s.registry.Register("events", &eventsCommand{s})
	s.registry.Register("help", &helpCommand{s})
	s.registry.Register("exit", &exitCommand{})
}

// Registry exposes the registered commands.
func (s *Shell) Registry() *Registry {
	return s.registry
}

// Execute parses and runs one input line.
func (s *Shell) Execute(ctx context.Context, input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	name := strings.ToLower(parts[0])
	if name == "?" {
		name = "help"
	}

	cmd, ok := s.registry.Get(name)
	if !ok {
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands", parts[0])
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return cmd.Execute(cmdCtx, parts[1:])
}

// Run reads commands until ctx is done, the input ends or exit is called.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "modapp> ",
		HistoryFile:       s.history,
		AutoComplete:      s.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	s.mu.Lock()
	s.out = rl.Stdout()
	s.mu.Unlock()

	if s.bus != nil {
		ch, unsubscribe := s.bus.Subscribe(events.DefaultBufferSize)
		defer unsubscribe()
		go s.eventListener(ctx, ch)
	}

	logging.Info("Shell", "Shell started. Type 'help' for available commands. Use TAB for completion.")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		if err := s.Execute(ctx, line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			s.printf("Error: %v\n", err)
		}
	}
}

func (s *Shell) eventListener(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			s.mu.Lock()
			show := s.showEvents
			s.mu.Unlock()
			if show {
				s.printf("[%s] %s %s: %s\n", ev.Type, ev.Reason, ev.Module, ev.Message)
			}
		}
	}
}

func (s *Shell) completer() *readline.PrefixCompleter {
	modules := readline.PcItemDynamic(func(string) []string { return s.moduleNames() })

	var items []readline.PrefixCompleterInterface
	for _, name := range s.registry.List() {
		switch name {
		case "load", "deactivate", "activate", "params":
			items = append(items, readline.PcItem(name, modules))
		case "events":
			items = append(items, readline.PcItem(name, readline.PcItem("on"), readline.PcItem("off")))
		default:
			items = append(items, readline.PcItem(name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

// moduleNames lists every module the orchestrator knows a record or a class for.
func (s *Shell) moduleNames() []string {
	seen := make(map[string]bool)
	for _, st := range s.target.Status() {
		seen[st.Name] = true
	}
	for _, name := range s.target.Classes() {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Shell) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) print(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.out, text)
}
