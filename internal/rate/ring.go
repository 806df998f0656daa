package rate

// History is a fixed-capacity ring of scalar samples feeding the
// sparkline displays. Appends past capacity silently evict the oldest
// sample; insertion order is time order.
type History struct {
	buf  []float64
	head int // index of the oldest sample
	n    int
}

// NewHistory returns an empty ring holding at most capacity samples.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]float64, capacity)}
}

func (h *History) Append(v float64) {
	if h.n < len(h.buf) {
		h.buf[(h.head+h.n)%len(h.buf)] = v
		h.n++
		return
	}
	h.buf[h.head] = v
	h.head = (h.head + 1) % len(h.buf)
}

// Values returns the samples oldest first. The slice is a copy; the
// caller may keep it across ticks.
func (h *History) Values() []float64 {
	out := make([]float64, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.head+i)%len(h.buf)]
	}
	return out
}

func (h *History) Len() int { return h.n }

// Last returns the most recent sample, or 0 when empty.
func (h *History) Last() float64 {
	if h.n == 0 {
		return 0
	}
	return h.buf[(h.head+h.n-1)%len(h.buf)]
}
