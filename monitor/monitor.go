// Package monitor implements a minimal command-driven debugger, the
// external collaborator the fault classifier hands a register dump to when
// a guest fault can't be classified as recoverable — the Go-native
// counterpart of the surrounding emulator's built-in mon integration
// (mon_add_command("regs", ...), mon_add_command("log", ...)).
package monitor

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/lunixbochs/argjoy"
)

// Context is passed as the first argument to every registered command,
// giving it a place to print output. It carries no other state; a command
// reaches the state it reports on through its own closure.
type Context struct {
	Out io.Writer
}

// Printf writes to the monitor's output stream.
func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

// Command names one debugger command: a description for "help" and an
// arbitrary-signature Run func whose leading *Context parameter and
// trailing string arguments are supplied by argjoy at dispatch time.
type Command struct {
	Name string
	Desc string
	Run  interface{}
}

// Monitor is a small registry of named commands plus the register/log dump
// most recently handed to it by the fault classifier. It implements
// fault.Monitor.
type Monitor struct {
	Out      io.Writer
	commands map[string]*Command
	aj       *argjoy.Argjoy
	lastDump string
}

// New builds an empty monitor writing command output to out.
func New(out io.Writer) *Monitor {
	return &Monitor{Out: out, commands: make(map[string]*Command), aj: argjoy.NewArgjoy()}
}

// Register adds a command to the registry, panicking if Run is not a func
// value — a programmer error in the host wiring, caught at startup rather
// than at dispatch time.
func (m *Monitor) Register(c *Command) {
	fn := reflect.ValueOf(c.Run)
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		panic(fmt.Sprintf("monitor: Command.Run must be a func: got (%T) %#v", c.Run, c.Run))
	}
	m.commands[c.Name] = c
}

// EnterDebugger records the dump the fault classifier produced and prints
// it, satisfying fault.Monitor. A real interactive front end (readline,
// gocui, ...) would sit in front of Dispatch; this layer only owns command
// registration and execution.
func (m *Monitor) EnterDebugger(dump string) {
	m.lastDump = dump
	fmt.Fprint(m.Out, dump)
}

// LastDump returns the most recent dump EnterDebugger recorded, empty if
// none yet.
func (m *Monitor) LastDump() string {
	return m.lastDump
}

// Dispatch parses and runs one command line, in the same shape as the
// surrounding emulator's own command loop: split on whitespace, look up
// the leading word, and let argjoy coerce the remaining words into the
// command's parameter types. Unlike the original, this layer has no
// quoted-argument commands, so a plain field split is sufficient.
func (m *Monitor) Dispatch(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := fields[0], fields[1:]
	cmd, ok := m.commands[name]
	if !ok {
		fmt.Fprintf(m.Out, "monitor: command not found: %s\n", name)
		return nil
	}
	ctx := &Context{Out: m.Out}
	out, err := m.aj.Call(cmd.Run, ctx, args)
	if err != nil {
		fmt.Fprintf(m.Out, "monitor: %v\n", err)
		return nil
	}
	if len(out) > 0 {
		if callErr, ok := out[0].(error); ok && callErr != nil {
			fmt.Fprintf(m.Out, "monitor: %v\n", callErr)
		}
	}
	return nil
}
