package draft

import "crypto/sha256"

// transcriptDigest is the SHA-256 of the raw transcript bytes that gets
// baked into a ReviewedEncounter — the full transcript itself is never
// part of the hashed record, only its digest.
func transcriptDigest(transcript string) [32]byte {
	return sha256.Sum256([]byte(transcript))
}
