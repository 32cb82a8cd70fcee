package recorder

// sourceBuffer is the append-only chunk list of one source. It has no lock
// of its own; every access goes through Session.mu. Chunks are never
// modified after they are appended.
type sourceBuffer struct {
	chunks  [][]float32
	samples int
	frozen  bool
}

// append adds a chunk unless the buffer has been frozen by Stop.
func (b *sourceBuffer) append(chunk []float32) bool {
	if b.frozen {
		return false
	}
	b.chunks = append(b.chunks, chunk)
	b.samples += len(chunk)
	return true
}

func (b *sourceBuffer) latest() []float32 {
	if len(b.chunks) == 0 {
		return nil
	}
	return b.chunks[len(b.chunks)-1]
}

// concat flattens the chunks in capture order.
func (b *sourceBuffer) concat() []float32 {
	if b.samples == 0 {
		return nil
	}
	out := make([]float32, 0, b.samples)
	for _, c := range b.chunks {
		out = append(out, c...)
	}
	return out
}
