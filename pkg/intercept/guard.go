package intercept

// guards holds one reentrancy flag per operation kind. It lives beside the
// backing store, never inside it, so the flags are invisible to scripts.
type guards [len(Kinds)]bool

// acquire sets the flag for k. active has already checked that it is clear.
func (g *guards) acquire(k Kind) {
	g[k] = true
}

func (g *guards) release(k Kind) {
	g[k] = false
}
