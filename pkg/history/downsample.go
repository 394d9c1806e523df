package history

// Downsample decimates entries to at most maxPoints for display.
// Destination-based: reuses dst when it has sufficient capacity, otherwise
// allocates. Returns the destination slice.
func Downsample(dst []Entry, entries []Entry, maxPoints int) []Entry {
	if len(entries) <= maxPoints {
		if cap(dst) >= len(entries) {
			dst = dst[:len(entries)]
			copy(dst, entries)
			return dst
		}
		result := make([]Entry, len(entries))
		copy(result, entries)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]Entry, 0, maxPoints)
	}

	step := float64(len(entries)) / float64(maxPoints)
	for i := 0; i < maxPoints; i++ {
		idx := int(float64(i) * step)
		if idx < len(entries) {
			dst = append(dst, entries[idx])
		}
	}

	return dst
}

// Series extracts one numeric trace from entries, reusing dst.
func Series(dst []float64, entries []Entry, pick func(Entry) float64) []float64 {
	if cap(dst) >= len(entries) {
		dst = dst[:0]
	} else {
		dst = make([]float64, 0, len(entries))
	}
	for _, e := range entries {
		dst = append(dst, pick(e))
	}
	return dst
}
