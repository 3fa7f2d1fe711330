package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"tlcmux/host/tlcmux"
)

var errQuit = errors.New("quit")

type shellCmd struct {
	usage string
	help  string
	nargs int // minimum argument count
	run   func(c *tlcmux.Client, w io.Writer, args []int, raw []string) error
}

var shellCmds = map[string]shellCmd{
	"info": {"info", "print the device shape", 0, func(c *tlcmux.Client, w io.Writer, _ []int, _ []string) error {
		fmt.Fprintln(w, c.Shape())
		return nil
	}},
	"clear": {"clear", "set every channel to 0", 0, func(c *tlcmux.Client, _ io.Writer, _ []int, _ []string) error {
		return c.Clear()
	}},
	"clearrow": {"clearrow <row>", "set every channel of a row to 0", 1, func(c *tlcmux.Client, _ io.Writer, a []int, _ []string) error {
		return c.ClearRow(a[0])
	}},
	"set": {"set <row> <channel> <value>", "set one channel", 3, func(c *tlcmux.Client, _ io.Writer, a []int, _ []string) error {
		return c.Set(a[0], a[1], a[2])
	}},
	"setrow": {"setrow <row> <value>...", "set a row; a single value fills the row", 2, func(c *tlcmux.Client, _ io.Writer, a []int, _ []string) error {
		values := a[1:]
		if len(values) == 1 {
			values = make([]int, c.Shape().Channels())
			for i := range values {
				values[i] = a[1]
			}
		}
		return c.SetRow(a[0], values)
	}},
	"setall": {"setall <value>", "set every channel", 1, func(c *tlcmux.Client, _ io.Writer, a []int, _ []string) error {
		return c.SetAll(a[0])
	}},
	"setrowall": {"setrowall <row> <value>", "set every channel of a row", 2, func(c *tlcmux.Client, _ io.Writer, a []int, _ []string) error {
		return c.SetRowAll(a[0], a[1])
	}},
	"get": {"get <row> <channel>", "read one channel", 2, func(c *tlcmux.Client, w io.Writer, a []int, _ []string) error {
		v, err := c.Get(a[0], a[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, v)
		return nil
	}},
	"getrow": {"getrow <row>", "read every channel of a row", 1, func(c *tlcmux.Client, w io.Writer, a []int, _ []string) error {
		values, err := c.GetRow(a[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, values)
		return nil
	}},
	"modifyrow": {"modifyrow <row> <hex>", "write packed bytes to a row", 1, func(c *tlcmux.Client, _ io.Writer, a []int, raw []string) error {
		data, err := hexArg(raw, 1)
		if err != nil {
			return err
		}
		return c.ModifyRow(a[0], data)
	}},
	"modifyarray": {"modifyarray <offset> <hex>", "write packed bytes at an array offset", 1, func(c *tlcmux.Client, _ io.Writer, a []int, raw []string) error {
		data, err := hexArg(raw, 1)
		if err != nil {
			return err
		}
		return c.ModifyArray(a[0], data)
	}},
}

// hexArg decodes raw[i:] joined together as hex
func hexArg(raw []string, i int) ([]byte, error) {
	if len(raw) <= i {
		return nil, fmt.Errorf("missing hex data")
	}
	return hex.DecodeString(strings.Join(raw[i:], ""))
}

// execLine runs one shell line against c, writing output to w
func execLine(c *tlcmux.Client, w io.Writer, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, raw := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		printShellHelp(w)
		return nil
	}

	cmd, ok := shellCmds[name]
	if !ok {
		return fmt.Errorf("unknown command %q (type 'help' for available commands)", name)
	}
	if len(raw) < cmd.nargs {
		return fmt.Errorf("usage: %s", cmd.usage)
	}

	// modify commands carry hex data after the first argument
	n := len(raw)
	if strings.HasPrefix(name, "modify") {
		n = 1
	}
	args := make([]int, n)
	for i := range args {
		v, err := strconv.ParseInt(raw[i], 0, 0)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i+1, err)
		}
		args[i] = int(v)
	}
	return cmd.run(c, w, args, raw)
}

func printShellHelp(w io.Writer) {
	fmt.Fprintln(w, "\nAvailable commands:")
	for _, name := range []string{"info", "clear", "clearrow", "set", "setrow", "setall", "setrowall", "get", "getrow", "modifyrow", "modifyarray"} {
		cmd := shellCmds[name]
		fmt.Fprintf(w, "  %-28s - %s\n", cmd.usage, cmd.help)
	}
	fmt.Fprintf(w, "  %-28s - %s\n", "help", "show this help message")
	fmt.Fprintf(w, "  %-28s - %s\n", "quit/exit/q", "exit the shell")
	fmt.Fprintln(w)
}

// runShell reads commands until EOF, quit or ctx ends
func runShell(ctx context.Context, c *tlcmux.Client) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "tlcmux> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "Connected to %s\n", c.Shape())
	printShellHelp(rl.Stdout())

	for ctx.Err() == nil {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}

		err = execLine(c, rl.Stdout(), line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "Error: %v\n", err)
		}
	}
	return ctx.Err()
}
