package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/petems/audio-recorder/internal/recorder"
)

const barWidth = 20

// levelPrinter is the StatusUpdater of the record command. It redraws one
// stderr line with a bar per source.
type levelPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	mode recorder.CaptureMode
	live bool
}

func newLevelPrinter(w io.Writer) *levelPrinter {
	return &levelPrinter{w: w}
}

func (p *levelPrinter) SetIdle() {}

func (p *levelPrinter) SetRecording(mode recorder.CaptureMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = mode
	p.live = true
}

func (p *levelPrinter) SetLevels(l recorder.Levels) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.live {
		return
	}
	fmt.Fprintf(p.w, "\r%s", levelLine(p.mode, l))
}

func (p *levelPrinter) SetSaved(path string) {}

func (p *levelPrinter) SetError(err error) {
	p.Finish()
	fmt.Fprintf(p.w, "error: %v\n", err)
}

// Finish ends the meter line so later output starts on a fresh line.
func (p *levelPrinter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.live {
		fmt.Fprintln(p.w)
		p.live = false
	}
}

func levelLine(mode recorder.CaptureMode, l recorder.Levels) string {
	var parts []string
	if mode.Captures(recorder.Mic) {
		parts = append(parts, "mic "+bar(l.Mic))
	}
	if mode.Captures(recorder.Desktop) {
		parts = append(parts, "desktop "+bar(l.Desktop))
	}
	return strings.Join(parts, "  ")
}

func bar(level float64) string {
	n := int(max(0, min(1, level)) * barWidth)
	return "[" + strings.Repeat("#", n) + strings.Repeat(" ", barWidth-n) + "] " + fmt.Sprintf("%-6s", recorder.LevelColor(level))
}
