package main

import (
	"undofile/internal/config"
	"undofile/pkg/undohost"
)

// noopCursor satisfies [undohost.CursorHost] for a headless CLI:
// undoctl has no window, so cursor/mark/visual state round-trips
// through the DAG but is never read or acted on.
type noopCursor struct {
	pos    undohost.Position
	marks  [undohost.NMarks]undohost.Position
	visual undohost.Visual
}

func (c *noopCursor) Cursor() undohost.Position                          { return c.pos }
func (c *noopCursor) CaptureVcol() int                                   { return -1 }
func (c *noopCursor) VirtualEditActive() bool                            { return false }
func (c *noopCursor) NamedMarks() [undohost.NMarks]undohost.Position     { return c.marks }
func (c *noopCursor) SetNamedMarks(m [undohost.NMarks]undohost.Position) { c.marks = m }
func (c *noopCursor) Visual() undohost.Visual                            { return c.visual }
func (c *noopCursor) SetVisual(v undohost.Visual)                        { c.visual = v }

func (c *noopCursor) SetCursor(p undohost.Position, vcol int, virtualEdit bool) {
	c.pos = p
}

// noopExtmarks satisfies [undohost.ExtmarkHost]: undoctl never attaches
// extmarks of its own, but still needs to round-trip whatever an
// editor previously recorded in a loaded undo file.
type noopExtmarks struct{}

func (noopExtmarks) ApplyExtmarkDelta(delta []byte, dir undohost.Direction) error {
	return nil
}

// cliPolicy adapts a loaded [config.Config] to [undohost.PolicyHost].
type cliPolicy struct {
	cfg config.Config
}

func (p cliPolicy) Modifiable() bool     { return true }
func (p cliPolicy) RestrictedMode() bool { return false }
func (p cliPolicy) HistoryDepth() int    { return p.cfg.HistoryDepth }
func (p cliPolicy) ViCompatible() bool   { return p.cfg.ViCompatible }
func (p cliPolicy) UndoDirs() string     { return p.cfg.UndoDirs }

var _ undohost.CursorHost = (*noopCursor)(nil)
var _ undohost.ExtmarkHost = noopExtmarks{}
var _ undohost.PolicyHost = cliPolicy{}
