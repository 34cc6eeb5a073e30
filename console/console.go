// Package console is a line-oriented diagnostic terminal for a running
// player.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rabidaudio/irmp3/catalog"
	"github.com/rabidaudio/irmp3/ir"
	"github.com/rabidaudio/irmp3/player"
	"github.com/rabidaudio/irmp3/rtos"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

// Player is the part of the player the console inspects and drives.
type Player interface {
	Status() player.Status
	Press(op ir.Opcode) bool
	SineTest(ctx context.Context, freq uint8, duration time.Duration) error
}

// sine test defaults: 0x44 is about 690 Hz
const (
	defaultSineFreq     = 0x44
	defaultSineDuration = 2 * time.Second
)

type Console struct {
	Player  Player
	Catalog *catalog.Catalog
	Tasks   func() []*rtos.Task
	// OnQuit runs when the operator types quit or closes the terminal.
	OnQuit func()
	Prompt string
}

func New(p Player, cat *catalog.Catalog, tasks func() []*rtos.Task) *Console {
	return &Console{Player: p, Catalog: cat, Tasks: tasks, Prompt: "irmp3> "}
}

var commands = map[string]string{
	"tasks":    "list tasks with priority and state",
	"status":   "show playback, settings and queue depths",
	"press":    "press <button>: queue a remote button",
	"sinetest": "sinetest [freq byte] [duration]: play the decoder's test tone",
	"help":     "show this list",
	"quit":     "stop the player",
}

func (c *Console) completer() readline.AutoCompleter {
	var buttons []readline.PrefixCompleterInterface
	for _, op := range ir.Buttons() {
		buttons = append(buttons, readline.PcItem(op.String()))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("tasks"),
		readline.PcItem("status"),
		readline.PcItem("press", buttons...),
		readline.PcItem("sinetest"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// Run reads commands until ctx is done or the operator quits.
func (c *Console) Run(ctx context.Context, t *rtos.Task) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.Prompt,
		AutoComplete:    c.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { rl.Close() })
	defer stop()
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err == io.EOF {
			c.quit()
			return nil
		}
		if err != nil {
			return fmt.Errorf("console: %w", err)
		}
		out, err := c.Exec(ctx, line)
		if errors.Is(err, ErrQuit) {
			c.quit()
			return nil
		}
		if err != nil {
			fmt.Fprintln(rl.Stderr(), "error:", err)
			continue
		}
		if out != "" {
			fmt.Fprint(rl.Stdout(), out)
		}
		if err := t.Checkpoint(ctx); err != nil {
			return err
		}
	}
}

func (c *Console) quit() {
	if c.OnQuit != nil {
		c.OnQuit()
	}
}

// Exec runs one command line and returns its output.
func (c *Console) Exec(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	switch strings.ToLower(fields[0]) {
	case "help", "?":
		return c.help(), nil
	case "tasks":
		return c.tasks(), nil
	case "status":
		return c.status(), nil
	case "press":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: press <button>")
		}
		op, ok := ir.Lookup(fields[1])
		if !ok {
			return "", fmt.Errorf("unknown button %q", fields[1])
		}
		if !c.Player.Press(op) {
			return "", fmt.Errorf("opcode queue full, %s dropped", op)
		}
		return fmt.Sprintf("pressed %s\n", op), nil
	case "sinetest":
		return c.sineTest(ctx, fields[1:])
	case "quit", "exit":
		return "", ErrQuit
	default:
		return "", fmt.Errorf("unknown command %q (try help)", fields[0])
	}
}

func (c *Console) sineTest(ctx context.Context, args []string) (string, error) {
	if len(args) > 2 {
		return "", fmt.Errorf("usage: sinetest [freq byte] [duration]")
	}
	freq, duration := uint64(defaultSineFreq), defaultSineDuration
	if len(args) > 0 {
		var err error
		if freq, err = strconv.ParseUint(args[0], 0, 8); err != nil {
			return "", fmt.Errorf("sinetest: freq: %w", err)
		}
	}
	if len(args) > 1 {
		var err error
		if duration, err = time.ParseDuration(args[1]); err != nil {
			return "", fmt.Errorf("sinetest: duration: %w", err)
		}
	}
	if err := c.Player.SineTest(ctx, uint8(freq), duration); err != nil {
		return "", err
	}
	return fmt.Sprintf("sine test 0x%02X for %v done\n", freq, duration), nil
}

func (c *Console) help() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "  %-8s %s\n", name, commands[name])
	}
	b.WriteString("  buttons:")
	for _, op := range ir.Buttons() {
		b.WriteString(" " + op.String())
	}
	b.WriteString("\n")
	return b.String()
}

func (c *Console) tasks() string {
	if c.Tasks == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-10s %s\n", "NAME", "PRIORITY", "STATE")
	for _, t := range c.Tasks() {
		fmt.Fprintf(&b, "%-12s %-10s %s", t.Name, t.Priority, t.State())
		if err := t.Err(); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(&b, " (%v)", err)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (c *Console) status() string {
	st := c.Player.Status()
	var b strings.Builder

	state := "playing"
	if st.Paused {
		state = "paused"
	}
	if !st.Playback.Loaded {
		state = "idle"
	}
	fmt.Fprintf(&b, "state:    %s\n", state)
	if tr, ok := c.Catalog.Track(st.Playback.Track); ok && st.Playback.Loaded {
		fmt.Fprintf(&b, "track:    %d/%d %s - %s\n", tr.Index+1, c.Catalog.Len(), tr.Artist(), tr.Title())
		fmt.Fprintf(&b, "position: %d/%d bytes\n", st.Playback.Consumed, st.Playback.Size)
	}
	vol := fmt.Sprint(st.Menu.Volume)
	if st.Menu.Muted {
		vol += " (muted)"
	}
	fmt.Fprintf(&b, "volume:   %s  bass: %d  treble: %d\n", vol, st.Menu.Bass, st.Menu.Treble)
	fmt.Fprintf(&b, "device:   volume=%d bass=%d treble=%d\n", st.Params.Volume, st.Params.Bass, st.Params.Treble)
	fmt.Fprintf(&b, "screen:   %s\n", st.Menu.Screen)
	fmt.Fprintf(&b, "queues:   opcodes=%d settings=%d chunks=%d\n", st.OpcodesQueued, st.SettingsQueued, st.ChunksQueued)
	fmt.Fprintf(&b, "locks:    bus=%s storage=%s\n", holder(st.BusHolder), holder(st.StorageHolder))
	return b.String()
}

func holder(name string) string {
	if name == "" {
		return "free"
	}
	return name
}
