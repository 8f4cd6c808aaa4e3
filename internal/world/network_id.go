package world

// NetworkIDAllocator assigns network ids to server-initiated, non-player
// entities. Grounded in original_source's NetworkIdAllocator: player ids
// (equal to player_id, §3 invariant 2) are allocated by the session manager
// from 1 upward; non-player ids start at 10000, so the two ranges stay
// apart as long as fewer than 10000 players have connected. The manager
// does not cap player ids at 9999.
type NetworkIDAllocator struct {
	next uint32
}

func NewNetworkIDAllocator() *NetworkIDAllocator {
	return &NetworkIDAllocator{next: 9999}
}

func (a *NetworkIDAllocator) Next() uint32 {
	a.next++
	return a.next
}
