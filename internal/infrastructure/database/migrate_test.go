package database

import (
	"strings"
	"testing"
)

// The one-open-conversation-per-pair invariant lives in this DDL; AutoMigrate
// alone only produces a plain lookup index on the pair columns.
func TestOpenPairIndexIsPartialAndUnique(t *testing.T) {
	for _, fragment := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_conversation_open_pair",
		"ON conversations (participant_a, participant_b)",
		"WHERE status = 'open'",
	} {
		if !strings.Contains(openPairIndexSQL, fragment) {
			t.Errorf("open-pair index DDL is missing %q", fragment)
		}
	}
}
