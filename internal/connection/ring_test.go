package connection

import (
	"strconv"
	"testing"

	"github.com/marketpulse/pushgate/internal/protocol"
)

func ringMsg(n int) protocol.Message {
	return protocol.NewMessage(protocol.TypeNotification, map[string]any{"n": strconv.Itoa(n)}, false)
}

func TestMessageRing_FillsToCapacity(t *testing.T) {
	r := newMessageRing(3)

	for i := 0; i < 3; i++ {
		r.Add(ringMsg(i))
	}

	if r.Len() != 3 {
		t.Errorf("Len = %d, want 3", r.Len())
	}
	if r.Cap() != 3 {
		t.Errorf("Cap = %d, want 3", r.Cap())
	}
}

func TestMessageRing_EvictsOldestFirst(t *testing.T) {
	r := newMessageRing(3)

	for i := 0; i < 5; i++ {
		r.Add(ringMsg(i))
	}

	if r.Len() != 3 {
		t.Fatalf("Len = %d, want capacity 3 after overflow", r.Len())
	}

	got := r.Recent(0)
	for i, want := range []string{"2", "3", "4"} {
		if got[i].Data["n"] != want {
			t.Errorf("entry %d = %v, want n=%s", i, got[i].Data["n"], want)
		}
	}
}

func TestMessageRing_RecentLimitsAndOrders(t *testing.T) {
	r := newMessageRing(5)
	for i := 0; i < 5; i++ {
		r.Add(ringMsg(i))
	}

	got := r.Recent(2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Most recent last.
	if got[0].Data["n"] != "3" || got[1].Data["n"] != "4" {
		t.Errorf("got %v, %v; want n=3, n=4", got[0].Data["n"], got[1].Data["n"])
	}
}

func TestMessageRing_RecentMoreThanBuffered(t *testing.T) {
	r := newMessageRing(5)
	r.Add(ringMsg(0))

	got := r.Recent(10)
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestMessageRing_MinimumCapacity(t *testing.T) {
	r := newMessageRing(0)
	r.Add(ringMsg(1))
	r.Add(ringMsg(2))

	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
	if got := r.Recent(0); got[0].Data["n"] != "2" {
		t.Errorf("got n=%v, want 2", got[0].Data["n"])
	}
}
