package server

// Relay keys (blinded UTXOs, attachment IDs) are opaque caller-supplied
// strings with no assumed structure. Validation only keeps them safe in
// URL paths, filesystem-adjacent logs, and the database: printable
// ASCII, no whitespace, no path separators, bounded length.
const maxRelayKeyLength = 512

func validateRelayKey(key string) bool {
	if key == "" || len(key) > maxRelayKeyLength {
		return false
	}
	for _, r := range key {
		if r <= ' ' || r > '~' {
			return false
		}
		if r == '/' || r == '\\' {
			return false
		}
	}
	return true
}
