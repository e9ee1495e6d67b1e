package screen

import (
	"strings"
	"testing"

	"github.com/weftsh/weft/internal/vtparser"
)

func feed(s *Screen, data []byte) {
	vtparser.NewParser(vtparser.NewDispatchBuilder(s)).Feed(data)
}

func TestScreenPrintAndWrap(t *testing.T) {
	s := New(5, 3)
	feed(s, []byte("abcdefg"))

	lines := s.Snapshot()
	if lines[0] != "abcde" || lines[1] != "fg" {
		t.Fatalf("lines = %q, want wrap at column 5", lines)
	}
}

func TestScreenCRLF(t *testing.T) {
	s := New(10, 3)
	feed(s, []byte("hi\r\nthere"))

	lines := s.Snapshot()
	if lines[0] != "hi" || lines[1] != "there" {
		t.Fatalf("lines = %q", lines)
	}
}

func TestScreenBackspace(t *testing.T) {
	s := New(10, 1)
	feed(s, []byte("ab\bc"))

	lines := s.Snapshot()
	if lines[0] != "ac" {
		t.Fatalf("line = %q, want %q", lines[0], "ac")
	}
}

func TestScreenCursorMotion(t *testing.T) {
	s := New(10, 5)
	feed(s, []byte("\x1b[3;5H"))
	col, row := s.Cursor()
	if col != 4 || row != 2 {
		t.Fatalf("cursor = (%d,%d), want (4,2)", col, row)
	}

	feed(s, []byte("\x1b[2A\x1b[1C"))
	col, row = s.Cursor()
	if col != 5 || row != 0 {
		t.Fatalf("cursor = (%d,%d), want (5,0)", col, row)
	}
}

func TestScreenEraseInLine(t *testing.T) {
	s := New(20, 1)
	feed(s, []byte("hello world"))
	feed(s, []byte("\x1b[5D\x1b[K"))

	lines := s.Snapshot()
	if strings.TrimRight(lines[0], " ") != "hello" {
		t.Fatalf("line = %q, want %q", lines[0], "hello")
	}
}

func TestScreenEraseInDisplay(t *testing.T) {
	s := New(5, 2)
	feed(s, []byte("abcdefghij"))
	feed(s, []byte("\x1b[2J"))

	for _, line := range s.Snapshot() {
		if strings.TrimRight(line, " ") != "" {
			t.Fatalf("line = %q, want blank after ED(2)", line)
		}
	}
}

func TestScreenBellCallback(t *testing.T) {
	s := New(10, 1)
	rang := false
	s.OnBell(func() { rang = true })
	feed(s, []byte("\x07"))

	if !rang {
		t.Error("bell callback not invoked")
	}
}

func TestScreenScrollsOnOverflow(t *testing.T) {
	s := New(10, 2)
	feed(s, []byte("first\r\nsecond\r\nthird"))

	lines := s.Snapshot()
	if lines[0] != "second" || lines[1] != "third" {
		t.Fatalf("lines = %q, want the oldest row scrolled off", lines)
	}
}

func TestScreenResizePreservesContent(t *testing.T) {
	s := New(5, 2)
	feed(s, []byte("ab"))
	s.Resize(8, 3)

	lines := s.Snapshot()
	if lines[0] != "ab" {
		t.Fatalf("line 0 = %q, want %q preserved across resize", lines[0], "ab")
	}
	if len(lines) != 3 {
		t.Fatalf("got %d rows, want 3", len(lines))
	}
}
