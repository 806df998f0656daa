package rate

import (
	"reflect"
	"testing"
)

func TestHistoryEviction(t *testing.T) {
	h := NewHistory(3)
	for _, v := range []float64{1, 2, 3, 4} {
		h.Append(v)
	}
	want := []float64{2, 3, 4}
	if got := h.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
}

func TestHistoryPartialFill(t *testing.T) {
	h := NewHistory(5)
	h.Append(10)
	h.Append(20)
	if got := h.Values(); !reflect.DeepEqual(got, []float64{10, 20}) {
		t.Errorf("Values() = %v, want [10 20]", got)
	}
	if h.Last() != 20 {
		t.Errorf("Last() = %v, want 20", h.Last())
	}
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory(4)
	if h.Len() != 0 || h.Last() != 0 {
		t.Errorf("empty history: Len=%d Last=%v", h.Len(), h.Last())
	}
	if got := h.Values(); len(got) != 0 {
		t.Errorf("Values() = %v, want empty", got)
	}
}

func TestHistoryValuesIsACopy(t *testing.T) {
	h := NewHistory(2)
	h.Append(1)
	vals := h.Values()
	vals[0] = 99
	if h.Values()[0] != 1 {
		t.Error("reader mutation leaked into the ring")
	}
}
