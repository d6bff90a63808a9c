package bolt

import "encoding/binary"

// Magic is the 4-byte preamble every Bolt connection starts with, both
// client->server and (unchanged) on the server's reply.
var Magic = [4]byte{0x60, 0x60, 0xb0, 0x17}

// proposedVersion is the single Bolt protocol version this package speaks:
// enough for HELLO/RUN/PULL_ALL/GOODBYE, which is all the routing oracle
// and the proxy's transaction-mode sniffing need.
const proposedVersion = 3

// ProposeVersions builds the 16-byte handshake proposal sent right after
// Magic: four 4-byte big-endian version numbers, highest preference first.
// Only the first slot is non-zero; this proxy doesn't negotiate a range.
func ProposeVersions() [16]byte {
	var out [16]byte
	binary.BigEndian.PutUint32(out[0:4], proposedVersion)
	return out
}

// ValidateMagic reports whether buf starts with the Bolt magic preamble.
func ValidateMagic(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == Magic[0] && buf[1] == Magic[1] && buf[2] == Magic[2] && buf[3] == Magic[3]
}

// AgreedVersion decodes a 4-byte handshake reply into the version number the
// server chose, or 0 if it refused every proposal.
func AgreedVersion(reply [4]byte) uint32 {
	return binary.BigEndian.Uint32(reply[:])
}
