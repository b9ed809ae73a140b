package lifecycle

import (
	"reflect"
	"strconv"
	"testing"
)

func TestLineBuffer_AppendAndLines(t *testing.T) {
	b := NewLineBuffer(3)

	if got := b.Lines(); len(got) != 0 {
		t.Errorf("Lines() on empty buffer = %v, want empty", got)
	}

	b.Append("one")
	b.Append("two")
	if got := b.Lines(); !reflect.DeepEqual(got, []string{"one", "two"}) {
		t.Errorf("Lines() = %v", got)
	}
}

func TestLineBuffer_EvictsOldest(t *testing.T) {
	b := NewLineBuffer(3)
	for i := 1; i <= 5; i++ {
		b.Append("line" + strconv.Itoa(i))
	}

	want := []string{"line3", "line4", "line5"}
	if got := b.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("Lines() after overflow = %v, want %v", got, want)
	}
	if b.Len() != 3 {
		t.Errorf("Len() = %d, want 3", b.Len())
	}
}

func TestLineBuffer_Tail(t *testing.T) {
	b := NewLineBuffer(10)
	for i := 1; i <= 4; i++ {
		b.Append("line" + strconv.Itoa(i))
	}

	if got := b.Tail(2); !reflect.DeepEqual(got, []string{"line3", "line4"}) {
		t.Errorf("Tail(2) = %v", got)
	}
	if got := b.Tail(100); !reflect.DeepEqual(got, b.Lines()) {
		t.Errorf("Tail(100) = %v, want all lines", got)
	}
	if got := b.Tail(0); got != nil {
		t.Errorf("Tail(0) = %v, want nil", got)
	}
}

func TestLineBuffer_Reset(t *testing.T) {
	b := NewLineBuffer(2)
	b.Append("a")
	b.Append("b")
	b.Append("c")
	b.Reset()

	if b.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", b.Len())
	}
	b.Append("fresh")
	if got := b.Lines(); !reflect.DeepEqual(got, []string{"fresh"}) {
		t.Errorf("Lines() after Reset+Append = %v", got)
	}
}
