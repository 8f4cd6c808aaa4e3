package world

import "testing"

func TestNetworkIDAllocatorStartsAt10000(t *testing.T) {
	a := NewNetworkIDAllocator()
	if got := a.Next(); got != 10000 {
		t.Fatalf("expected first allocated id to be 10000, got %d", got)
	}
	if got := a.Next(); got != 10001 {
		t.Fatalf("expected second allocated id to be 10001, got %d", got)
	}
}
