// cmd/regmap/console.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tamzrod/fpga-regmap/internal/regmap"
)

// console executes one command line at a time against a runtime.
type console struct {
	rt  *runtime
	out io.Writer
}

// runConsole reads commands until quit, EOF or ctx is done.
// A terminal gets a readline prompt; anything else is read as a script.
func runConsole(ctx context.Context, cancel context.CancelFunc, rt *runtime, log *slog.Logger) error {
	if !interactive() {
		log.Debug("stdin is not a terminal; reading commands as a script")
		c := &console{rt: rt, out: os.Stdout}
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			if ctx.Err() != nil || c.exec(sc.Text()) {
				break
			}
		}
		return sc.Err()
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "regmap> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	c := &console{rt: rt, out: rl.Stdout()}

	// tunnel responses arrive asynchronously
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case line := <-rt.lines:
				fmt.Fprintf(rl.Stdout(), "<< %s\n", line)
			}
		}
	}()

	c.help()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			cancel()
			return nil
		}
		if c.exec(line) {
			cancel()
			return nil
		}
	}
}

// exec runs one command and reports whether the console should exit.
func (c *console) exec(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" || strings.HasPrefix(input, "#") {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.help()

	case "map", "m":
		c.cmdMap(args)

	case "read", "r":
		c.cmdRead(args)

	case "write", "w":
		c.cmdWrite(args)

	case "send", "s":
		c.cmdSend(input, args)

	case "esc":
		c.cmdEscape()

	case "last":
		if c.rt.rx == nil {
			fmt.Fprintln(c.out, "tunnel not configured")
			break
		}
		fmt.Fprintf(c.out, "%q\n", c.rt.rx.LastReceived())

	case "status":
		fmt.Fprintln(c.out, c.rt.tracker.Snapshot())

	case "quit", "exit", "q":
		return true

	default:
		fmt.Fprintf(c.out, "unknown command %q (try help)\n", cmd)
	}
	return false
}

func (c *console) help() {
	fmt.Fprintln(c.out, `Commands:
  map [prefix] [mode]   list fields and derived values
  read <path>           read a field, or compute a derived value
  write <path> <value>  write a field
  send <text>           send a tunnel command
  esc                   send the tunnel escape frame
  last                  show the last tunnel line received
  status                show source health
  help                  show this help
  quit                  exit`)
}

func (c *console) cmdMap(args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	var mode *regmap.Mode
	if len(args) > 1 {
		m, err := regmap.ParseMode(args[1])
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			return
		}
		mode = &m
	}

	var dev *regmap.Device
	for _, e := range c.rt.m.Entries {
		d := e.Var.Device()
		if !listed(e.Var.Hidden, d) || !strings.HasPrefix(e.Path, prefix) {
			continue
		}
		if mode != nil && e.Mode != *mode {
			continue
		}
		if d != dev {
			dev = d
			fmt.Fprintf(c.out, "[%s] %s\n", d.Path(), d.Description())
		}
		val := "-"
		if raw, ok := c.rt.shadow.Load(e.Path); ok {
			val = regmap.Format(e, raw)
		}
		fmt.Fprintf(c.out, "0x%08x.%d  %-2s  %-40s %s\n", e.Address, e.BitOffset, e.Mode, e.Path, val)
	}

	if mode != nil && *mode != regmap.RO {
		return
	}
	var links []string
	for _, l := range c.rt.m.Links {
		if listed(l.Link.Hidden, l.Link.Device()) && strings.HasPrefix(l.Path, prefix) {
			links = append(links, l.Path)
		}
	}
	sort.Strings(links)
	for _, p := range links {
		l, _ := c.rt.m.LookupLink(p)
		val, err := l.Link.Display(c.rt.shadow)
		if err != nil {
			val = "-"
		}
		fmt.Fprintf(c.out, "%-12s  %-2s  %-40s %s\n", "(derived)", regmap.RO, p, val)
	}
}

// listed reports whether an item belongs in the map listing.
func listed(hidden bool, d *regmap.Device) bool {
	return !hidden && d.Visible() && d.Enabled()
}

func (c *console) cmdRead(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: read <path>")
		return
	}
	v, err := c.rt.writer.Read(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "%s = %s\n", args[0], v)
}

func (c *console) cmdWrite(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "usage: write <path> <value>")
		return
	}
	// values may contain spaces (string fields)
	value := strings.Join(args[1:], " ")
	if err := c.rt.writer.Write(args[0], value); err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "ok")
}

func (c *console) cmdSend(input string, args []string) {
	if c.rt.tx == nil {
		fmt.Fprintln(c.out, "tunnel not configured")
		return
	}
	if len(args) == 0 {
		fmt.Fprintln(c.out, "usage: send <text>")
		return
	}
	// everything after the command word, spacing preserved
	text := strings.TrimSpace(input[len(strings.Fields(input)[0]):])
	if err := c.rt.tx.Send(text); err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, ">> %s\n", text)
}

func (c *console) cmdEscape() {
	if c.rt.tx == nil {
		fmt.Fprintln(c.out, "tunnel not configured")
		return
	}
	if err := c.rt.tx.Escape(); err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, ">> <esc>")
}
