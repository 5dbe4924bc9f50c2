// Package i10n resolves the localisation-key reason strings room.OpError
// carries into user-facing text for a given language (§7).
package i10n

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// defaultStrings is the built-in English table; always present even if no
// translation directory is configured.
var defaultStrings = map[string]string{
	"room_already_exist":        "A room with that id already exists.",
	"room_duplicate_create":     "You are already in a room.",
	"room_duplicate_join":       "You are already in a room.",
	"room_not_found":            "Room not found.",
	"room_already_locked":       "Room is locked.",
	"room_already_unlocked":     "Room is already unlocked.",
	"room_in_ready_state":       "Room is waiting for players to ready up.",
	"not_in_room":               "You are not in that room.",
	"not_host":                  "Only the host can do that.",
	"room_already_cycled":       "Host cycling is already enabled.",
	"room_already_not_cycled":   "Host cycling is already disabled.",
	"wrong_state":               "Room is not in the right state for that.",
	"user_duplicate_join":       "You are already connected from elsewhere.",
	"chart_fetch_failed":        "Could not fetch chart metadata.",
	"record_fetch_failed":       "Could not fetch the play record.",
}

// Table resolves reason keys per language, falling back to the built-in
// English table and finally to the raw key (§7: "reason strings are
// localisation keys"; this is the session layer's resolver, grounded on
// original_source/i10n.py's per-language JSON file lookup).
type Table struct {
	mu        sync.RWMutex
	dir       string
	languages map[string]map[string]string
}

// NewTable builds a Table that lazily loads "<dir>/<language>.json" files
// on first use of that language. dir may be empty, in which case only the
// built-in English table is available.
func NewTable(dir string) *Table {
	return &Table{dir: dir, languages: make(map[string]map[string]string)}
}

// Resolve returns the localised text for key in language, falling back to
// English and then to key itself.
func (t *Table) Resolve(language, key string) string {
	if language != "" && language != "en" {
		if strings := t.load(language); strings != nil {
			if v, ok := strings[key]; ok {
				return v
			}
		}
	}
	if v, ok := defaultStrings[key]; ok {
		return v
	}
	return key
}

func (t *Table) load(language string) map[string]string {
	t.mu.RLock()
	strings, ok := t.languages[language]
	t.mu.RUnlock()
	if ok {
		return strings
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if strings, ok := t.languages[language]; ok {
		return strings
	}

	if t.dir == "" {
		t.languages[language] = nil
		return nil
	}

	data, err := os.ReadFile(filepath.Join(t.dir, language+".json"))
	if err != nil {
		t.languages[language] = nil
		return nil
	}
	var parsed map[string]string
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.languages[language] = nil
		return nil
	}
	t.languages[language] = parsed
	return parsed
}
