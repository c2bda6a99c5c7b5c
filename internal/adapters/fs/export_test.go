package fs

// SetFingerprint swaps the digest Matches compares first until restore is called.
func SetFingerprint(f func([]byte) uint64) (restore func()) {
	prev := fingerprint
	fingerprint = f
	return func() { fingerprint = prev }
}
