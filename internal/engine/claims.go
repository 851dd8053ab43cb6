package engine

// claimSet tracks QSOs linked during one phase so later candidates that
// involve them are skipped without a round trip to the store.
//
// It mirrors the store's conditional update; LinkPair remains the
// authority. A claim only ever saves work.
type claimSet struct {
	claimed map[int64]struct{}
}

func newClaimSet() *claimSet {
	return &claimSet{claimed: make(map[int64]struct{})}
}

// Taken reports whether either QSO is already claimed.
func (c *claimSet) Taken(a, b int64) bool {
	_, ta := c.claimed[a]
	_, tb := c.claimed[b]
	return ta || tb
}

// Claim records both QSOs as linked.
func (c *claimSet) Claim(a, b int64) {
	c.claimed[a] = struct{}{}
	c.claimed[b] = struct{}{}
}

// Len returns the number of claimed QSOs.
func (c *claimSet) Len() int {
	return len(c.claimed)
}
