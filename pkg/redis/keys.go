package redis

import "fmt"

// Key construction helpers

// SessionKey returns the key holding a survey session (string, JSON)
// Pattern: survey:session:{id}
func SessionKey(id string) string {
	return fmt.Sprintf("survey:session:%s", id)
}
