package progress

import (
	"io"
	"strings"
	"sync"
)

// DefaultWidth is the minimum rendered width of a status line
const DefaultWidth = 120

// Line owns one console line that is redrawn in place. Other output routed
// through Writer clears the line first and redraws it afterwards, so status
// and log output never garble each other.
type Line struct {
	mu       sync.Mutex
	out      io.Writer
	minWidth int
	last     string
	width    int
	live     bool
}

// NewLine creates a line writing to out
func NewLine(out io.Writer, minWidth int) *Line {
	if minWidth < 0 {
		minWidth = 0
	}
	return &Line{out: out, minWidth: minWidth}
}

// Render redraws the line with text, padded to cover the previous render
func (l *Line) Render(text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.renderLocked(text)
}

func (l *Line) renderLocked(text string) error {
	pad := l.minWidth
	if l.width > pad {
		pad = l.width
	}
	padded := text
	if n := pad - len(text); n > 0 {
		padded += strings.Repeat(" ", n)
	}
	if _, err := io.WriteString(l.out, "\r"+padded); err != nil {
		return err
	}
	l.last = text
	l.width = len(padded)
	l.live = true
	return nil
}

// Finish terminates the current line so the next render starts a new one
func (l *Line) Finish() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.live {
		return nil
	}
	l.live = false
	l.last = ""
	l.width = 0
	_, err := io.WriteString(l.out, "\n")
	return err
}

func (l *Line) clearLocked() error {
	if !l.live {
		return nil
	}
	_, err := io.WriteString(l.out, "\r"+strings.Repeat(" ", l.width)+"\r")
	return err
}

// Println writes a full line of text above the status line
func (l *Line) Println(text string) error {
	_, err := l.Writer().Write([]byte(text + "\n"))
	return err
}

// Writer returns a writer whose output interleaves safely with the status line
func (l *Line) Writer() io.Writer {
	return interleaved{l}
}

type interleaved struct {
	l *Line
}

func (w interleaved) Write(p []byte) (int, error) {
	w.l.mu.Lock()
	defer w.l.mu.Unlock()

	live := w.l.live
	if err := w.l.clearLocked(); err != nil {
		return 0, err
	}
	n, err := w.l.out.Write(p)
	if err != nil {
		return n, err
	}
	if live {
		text := w.l.last
		w.l.width = 0
		if err := w.l.renderLocked(text); err != nil {
			return n, err
		}
	}
	return n, nil
}
