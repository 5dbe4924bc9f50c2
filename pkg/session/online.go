package session

import "sync"

// OnlineTable tracks which user ids currently have a live, authenticated
// connection (§4.4). It is the process-wide collaborator that lets
// Authenticate detect Scenario G (§8): a second connection presenting
// credentials for an already-online user is rejected, the first connection
// is left untouched.
type OnlineTable struct {
	mu      sync.Mutex
	present map[int32]bool
}

// NewOnlineTable builds an empty table.
func NewOnlineTable() *OnlineTable {
	return &OnlineTable{present: make(map[int32]bool)}
}

// Claim reports whether userID was not already online, and if so marks it
// online atomically. A false return means the caller must reject this
// authentication attempt.
func (t *OnlineTable) Claim(userID int32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.present[userID] {
		return false
	}
	t.present[userID] = true
	return true
}

// Release marks userID offline, run during disconnect cleanup.
func (t *OnlineTable) Release(userID int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.present, userID)
}

// Count reports how many users are currently online, for admin/metrics use.
func (t *OnlineTable) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.present)
}
