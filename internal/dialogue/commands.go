package dialogue

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/url"
	"os/exec"
	"strings"
)

type Action string

const (
	ActionLaunch Action = "launch" // start Target; parameter appended as argument
	ActionOpen   Action = "open"   // open the parameter as a URL
	ActionSearch Action = "search" // open Target + query-escaped parameter
)

// Command is one row of the command table.
type Command struct {
	Prefix string `yaml:"prefix"`
	Action Action `yaml:"action"`
	Target string `yaml:"target"`
}

// DefaultCommands is the Spanish command table, in priority order.
var DefaultCommands = []Command{
	{Prefix: "abrir chrome", Action: ActionLaunch, Target: "google-chrome"},
	{Prefix: "abrir notepad", Action: ActionLaunch, Target: "gedit"},
	{Prefix: "abrir calculadora", Action: ActionLaunch, Target: "gnome-calculator"},
	{Prefix: "ir a ", Action: ActionOpen},
	{Prefix: "reproducir ", Action: ActionSearch, Target: "https://www.youtube.com/results?search_query="},
}

// Launcher performs the side effects of commands.
type Launcher interface {
	Start(ctx context.Context, name string, args ...string) error
	OpenURL(ctx context.Context, rawURL string) error
}

type Commands struct {
	table    []Command
	launcher Launcher
}

func NewCommands(table []Command, launcher Launcher) *Commands {
	if table == nil {
		table = DefaultCommands
	}
	return &Commands{table: table, launcher: launcher}
}

// punctuation whisper puts around sentences
const sentencePunct = " \t.,;:!?¡¿"

// Match returns the first command whose prefix starts the lower-cased text,
// together with the remainder stripped of spaces and sentence punctuation.
func (c *Commands) Match(text string) (Command, string, bool) {
	lower := strings.TrimLeft(strings.ToLower(strings.TrimSpace(text)), sentencePunct)
	for _, cmd := range c.table {
		if strings.HasPrefix(lower, cmd.Prefix) {
			return cmd, strings.Trim(lower[len(cmd.Prefix):], sentencePunct), true
		}
	}
	return Command{}, "", false
}

// Execute runs the command matching text. It reports whether a command was
// executed; failures are logged and count as not executed.
func (c *Commands) Execute(ctx context.Context, text string) (string, bool) {
	cmd, param, ok := c.Match(text)
	if !ok {
		return "", false
	}

	if err := c.run(ctx, cmd, param); err != nil {
		log.Error("Failed to execute command", "cmd", cmd.Prefix, "err", err)
		return cmd.Prefix, false
	}

	log.Info("Executed command", "cmd", cmd.Prefix, "param", param)
	return cmd.Prefix, true
}

func (c *Commands) run(ctx context.Context, cmd Command, param string) error {
	switch cmd.Action {
	case ActionLaunch:
		if param == "" {
			return c.launcher.Start(ctx, cmd.Target)
		}
		return c.launcher.Start(ctx, cmd.Target, param)

	case ActionOpen:
		if param == "" {
			return errors.New("missing url")
		}
		return c.launcher.OpenURL(ctx, withScheme(param))

	case ActionSearch:
		if param == "" {
			return errors.New("missing search query")
		}
		return c.launcher.OpenURL(ctx, cmd.Target+url.QueryEscape(param))

	default:
		return fmt.Errorf("unknown action %q", cmd.Action)
	}
}

func withScheme(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "https://" + u
}

// ExecLauncher starts detached desktop programs.
type ExecLauncher struct {
	// Opener opens URLs; defaults to xdg-open.
	Opener string
}

func (l ExecLauncher) Start(_ context.Context, name string, args ...string) error {
	// not bound to ctx: launched programs outlive the turn
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

func (l ExecLauncher) OpenURL(ctx context.Context, rawURL string) error {
	opener := l.Opener
	if opener == "" {
		opener = "xdg-open"
	}
	return l.Start(ctx, opener, rawURL)
}
