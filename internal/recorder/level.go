package recorder

import (
	"context"
	"time"
)

const (
	// LevelPollInterval is how often the UI refreshes the meters.
	LevelPollInterval = 50 * time.Millisecond

	levelGain  = 3
	levelDecay = 0.8
)

// Levels holds one meter reading per source, each in [0, 1].
type Levels struct {
	Mic     float64
	Desktop float64
}

// ChunkSource is the read side of a Session the meters poll.
type ChunkSource interface {
	LatestChunk(src Source) ([]float32, uint64)
}

// LevelMonitor turns the newest chunk of each source into a meter value.
// A meter jumps to the peak of fresh audio and decays towards zero while
// no new chunk arrives. It is not safe for concurrent use.
type LevelMonitor struct {
	src    ChunkSource
	levels [numSources]float64
	seen   [numSources]uint64
}

func NewLevelMonitor(src ChunkSource) *LevelMonitor {
	return &LevelMonitor{src: src}
}

// Poll takes one reading.
func (m *LevelMonitor) Poll() Levels {
	for s := Mic; s < numSources; s++ {
		chunk, count := m.src.LatestChunk(s)
		if count != m.seen[s] && len(chunk) > 0 {
			m.levels[s] = PeakLevel(chunk)
		} else {
			m.levels[s] *= levelDecay
		}
		m.seen[s] = count
	}
	return Levels{Mic: m.levels[Mic], Desktop: m.levels[Desktop]}
}

// Run polls every LevelPollInterval and hands each reading to fn until ctx
// is done.
func (m *LevelMonitor) Run(ctx context.Context, fn func(Levels)) {
	ticker := time.NewTicker(LevelPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(m.Poll())
		}
	}
}

// PeakLevel maps a chunk to a meter value: its absolute peak times three,
// capped at 1.
func PeakLevel(chunk []float32) float64 {
	var peak float32
	for _, v := range chunk {
		if a := abs32(v); a > peak {
			peak = a
		}
	}
	return min(1, float64(peak)*levelGain)
}

// LevelColor names the meter colour for a level.
func LevelColor(level float64) string {
	switch {
	case level < 0.5:
		return "green"
	case level < 0.8:
		return "yellow"
	default:
		return "red"
	}
}
