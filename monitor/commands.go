package monitor

import (
	"github.com/mtennes/macemu/engine"
	"github.com/mtennes/macemu/models"
)

// RegisterDefaultCommands installs the "regs" and "log" commands the
// original glue layer wires into its built-in monitor at init_emul_ppc
// time (mon_add_command("regs", ...), mon_add_command("log", ...)): dump
// the current engine's registers, and print the lifecycle's stats line.
func RegisterDefaultCommands(m *Monitor, diff *models.StatusDiff, l *engine.Lifecycle) {
	m.Register(&Command{
		Name: "regs",
		Desc: "dump PowerPC registers",
		Run: func(c *Context) error {
			changes, err := diff.Changes(false)
			if err != nil {
				return err
			}
			c.Printf("%s\n", changes.String(false))
			return nil
		},
	})
	m.Register(&Command{
		Name: "log",
		Desc: "dump PowerPC emulation stats",
		Run: func(c *Context) error {
			c.Printf("%s\n", l.Stats())
			return nil
		},
	})
}
