package source

// SyncToken is the re-entrancy guard for one bound element. The fan-out
// acquires it before touching the element and skips the element when it
// is already held, so an element writing back into the model during its
// own refresh cannot loop.
type SyncToken struct {
	held bool
}

// Acquire takes the token. It reports false when the token is already
// held; the caller must skip the guarded section then.
func (t *SyncToken) Acquire() bool {
	if t.held {
		return false
	}
	t.held = true
	return true
}

// Release returns the token. Releasing a token that is not held is a
// programming error and panics.
func (t *SyncToken) Release() {
	if !t.held {
		panic("source: release of a sync token that is not held")
	}
	t.held = false
}

// Held reports whether the token is currently acquired.
func (t *SyncToken) Held() bool { return t.held }
