package definition

import (
	"crypto/sha256"
	"fmt"

	"github.com/goccy/go-json"
)

// Fingerprint computes a deterministic version for a definition.
// Priority: the user-provided Version, else hex(SHA256(definition JSON)[:8]).
func Fingerprint(def *Definition) string {
	if def.Version != "" {
		return def.Version
	}

	data, err := json.Marshal(def)
	if err != nil {
		// Definition holds only strings and slices; this cannot happen.
		return "invalid"
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}
