package common

import (
	uuid "github.com/nu7hatch/gouuid"
)

func GenUUID() string {
	// NewV4 only fails if crypto/rand does.
	for {
		if id, err := uuid.NewV4(); err == nil {
			return id.String()
		}
	}
}

// NewToken returns a name like "timeseries-3f2a9c1e" for identifying a
// generated collection in logs and plans.
func NewToken(prefix string) string {
	id := GenUUID()
	return prefix + "-" + id[:8]
}
