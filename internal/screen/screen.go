// Package screen implements a deliberately minimal terminal screen model:
// just enough cursor and grid bookkeeping to make a shell prompt and
// ordinary command output legible, consuming dispatch records from
// internal/vtparser. It is not an ECMA-48/DEC command interpreter; most CSI
// sequences are recognized and silently ignored rather than acted on.
package screen

import (
	"sync"

	"github.com/weftsh/weft/internal/vtparser"
)

// Cell is a single grid position: the rune occupying it, or 0 for unused.
type Cell struct {
	Rune rune
}

const tabWidth = 8

// Screen holds a fixed-size character grid and a cursor, and implements
// vtparser.DispatchSink so it can sit directly behind a
// vtparser.DispatchBuilder.
type Screen struct {
	mu   sync.RWMutex
	cols int
	rows int
	grid [][]Cell
	cx   int
	cy   int

	onBell func()
}

// New creates a Screen of the given size, cleared to blanks. cols and rows
// must be positive; Resize can grow or shrink it afterward.
func New(cols, rows int) *Screen {
	s := &Screen{}
	s.resizeLocked(cols, rows)
	return s
}

// OnBell registers a callback invoked whenever BEL (0x07) is executed.
// Passing nil clears a previously registered callback.
func (s *Screen) OnBell(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onBell = fn
}

// Resize changes the grid dimensions, preserving as much of the existing
// content as fits and clamping the cursor into the new bounds.
func (s *Screen) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resizeLocked(cols, rows)
}

func (s *Screen) resizeLocked(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	grid := make([][]Cell, rows)
	for y := range grid {
		grid[y] = make([]Cell, cols)
		if y < len(s.grid) {
			copy(grid[y], s.grid[y])
		}
	}
	s.grid = grid
	s.cols = cols
	s.rows = rows
	if s.cx >= cols {
		s.cx = cols - 1
	}
	if s.cy >= rows {
		s.cy = rows - 1
	}
}

// Snapshot returns a copy of the current grid contents as plain text, one
// string per row, trailing blanks trimmed. Intended for bootstrapping a
// newly attached client with a capture-then-forward snapshot before live
// output starts flowing.
func (s *Screen) Snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := make([]string, s.rows)
	for y, row := range s.grid {
		end := len(row)
		for end > 0 && row[end-1].Rune == 0 {
			end--
		}
		runes := make([]rune, end)
		for x := 0; x < end; x++ {
			r := row[x].Rune
			if r == 0 {
				r = ' '
			}
			runes[x] = r
		}
		lines[y] = string(runes)
	}
	return lines
}

// Cursor reports the cursor's current column and row.
func (s *Screen) Cursor() (col, row int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cx, s.cy
}

// Print implements vtparser.DispatchSink: it writes r at the cursor and
// advances, wrapping to the next row at the right margin.
func (s *Screen) Print(r rune) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cx >= s.cols {
		s.newlineLocked()
	}
	s.grid[s.cy][s.cx] = Cell{Rune: r}
	s.cx++
}

// Execute implements vtparser.DispatchSink for the handful of C0 controls
// that matter to plain-text legibility: backspace, tab, linefeed, carriage
// return, and bell.
func (s *Screen) Execute(r rune) {
	s.mu.Lock()
	bell := false
	switch r {
	case 0x08: // BS
		if s.cx > 0 {
			s.cx--
		}
	case 0x09: // HT
		next := (s.cx/tabWidth + 1) * tabWidth
		if next >= s.cols {
			next = s.cols - 1
		}
		s.cx = next
	case 0x0A: // LF
		s.newlineLocked()
	case 0x0D: // CR
		s.cx = 0
	case 0x07: // BEL
		bell = true
	}
	cb := s.onBell
	s.mu.Unlock()
	if bell && cb != nil {
		cb()
	}
}

func (s *Screen) newlineLocked() {
	s.cx = 0
	if s.cy < s.rows-1 {
		s.cy++
		return
	}
	// Scroll the grid up by one row.
	copy(s.grid, s.grid[1:])
	s.grid[s.rows-1] = make([]Cell, s.cols)
}

// Dispatch implements vtparser.DispatchSink for CSI sequences. Only cursor
// motion, erase-in-display, and erase-in-line are interpreted; everything
// else (including all of ESC, DCS and OSC) is a recognized no-op.
func (s *Screen) Dispatch(d vtparser.Dispatch) {
	if d.Kind != vtparser.DispatchCSI {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := param(d.Params, 0, 1)
	switch d.Final {
	case 'A': // CUU
		s.cy = max(0, s.cy-n)
	case 'B': // CUD
		s.cy = min(s.rows-1, s.cy+n)
	case 'C': // CUF
		s.cx = min(s.cols-1, s.cx+n)
	case 'D': // CUB
		s.cx = max(0, s.cx-n)
	case 'H': // CUP
		row := param(d.Params, 0, 1) - 1
		col := param(d.Params, 1, 1) - 1
		s.cy = clamp(row, 0, s.rows-1)
		s.cx = clamp(col, 0, s.cols-1)
	case 'J': // ED
		s.eraseInDisplayLocked(param(d.Params, 0, 0))
	case 'K': // EL
		s.eraseInLineLocked(param(d.Params, 0, 0))
	}
}

func (s *Screen) eraseInDisplayLocked(mode int) {
	switch mode {
	case 0:
		s.clearLocked(s.cy, s.cx, s.rows-1, s.cols-1)
	case 1:
		s.clearLocked(0, 0, s.cy, s.cx)
	case 2, 3:
		s.clearLocked(0, 0, s.rows-1, s.cols-1)
	}
}

func (s *Screen) eraseInLineLocked(mode int) {
	row := s.grid[s.cy]
	switch mode {
	case 0:
		for x := s.cx; x < s.cols; x++ {
			row[x] = Cell{}
		}
	case 1:
		for x := 0; x <= s.cx && x < s.cols; x++ {
			row[x] = Cell{}
		}
	case 2:
		for x := 0; x < s.cols; x++ {
			row[x] = Cell{}
		}
	}
}

func (s *Screen) clearLocked(y0, x0, y1, x1 int) {
	for y := y0; y <= y1; y++ {
		from := 0
		to := s.cols - 1
		if y == y0 {
			from = x0
		}
		if y == y1 {
			to = x1
		}
		for x := from; x <= to; x++ {
			s.grid[y][x] = Cell{}
		}
	}
}

// param reads params[i], treating a missing entry (short slice) or a
// default marker (-1) as def.
func param(params []int, i, def int) int {
	if i >= len(params) || params[i] < 0 {
		return def
	}
	if params[i] == 0 && def != 0 {
		// ECMA-48: an explicit 0 for CUU/CUD/CUF/CUB still means "at least
		// one", matching the default.
		return def
	}
	return params[i]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
