package recorder

const (
	mixGain       = 0.5
	normalizePeak = 0.95
)

// Mixdown combines the two captured sources into one mono track.
//
// When both sources have samples they are truncated to the shorter length,
// summed at half gain each and scaled so the peak sits at 0.95 (a silent
// mix is left as is). A single non-empty source is returned unchanged.
// With no samples at all the result is empty.
func Mixdown(mic, desktop []float32) []float32 {
	switch {
	case len(mic) > 0 && len(desktop) > 0:
		n := min(len(mic), len(desktop))
		out := make([]float32, n)
		var peak float32
		for i := range out {
			v := mic[i]*mixGain + desktop[i]*mixGain
			out[i] = v
			if a := abs32(v); a > peak {
				peak = a
			}
		}
		if peak > 0 {
			for i := range out {
				out[i] = out[i] / peak * normalizePeak
			}
		}
		return out
	case len(mic) > 0:
		return mic
	case len(desktop) > 0:
		return desktop
	default:
		return []float32{}
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
