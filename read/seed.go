package read

// GenSeed derives a per-record random seed from the record's sequence,
// qualities and name combined with the global run seed. The mixing is a
// cheap XOR of each byte at a position-masked shift; it is deterministic
// for a given record regardless of which worker parses it. Name bytes are
// mixed only up to the first '/', so both mates of a pair that differ only
// in a /1 or /2 suffix draw the same name contribution.
func GenSeed(seq, qual, name []byte, seed uint32) uint32 {
	rs := (seed + 101) * 59 * 61 * 67 * 71 * 73 * 79 * 83
	for i, p := range seq {
		off := (uint(i) & 15) << 1
		rs ^= uint32(p) << off
	}
	for i, p := range qual {
		off := (uint(i) & 3) << 3
		rs ^= uint32(p) << off
	}
	for i, p := range name {
		if p == '/' {
			break
		}
		off := (uint(i) & 3) << 3
		rs ^= uint32(p) << off
	}
	return rs
}
