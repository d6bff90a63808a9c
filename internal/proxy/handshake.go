package proxy

import "github.com/CyberGRX/neobolt/internal/bolt"

// ValidateMagic checks that the client's opening 4 bytes are the Bolt magic
// preamble. The teacher's snapshot called a function with this name from
// proxy.go but never defined it; this restores that missing piece.
func ValidateMagic(buf []byte) bool {
	return bolt.ValidateMagic(buf)
}

// ValidateHandshake confirms the server's 4-byte version reply is non-zero
// (i.e. it agreed to speak some version of Bolt with us) so it can be
// relayed back to the client unchanged.
func ValidateHandshake(serverReply []byte) ([]byte, error) {
	if len(serverReply) != 4 {
		return nil, errHandshakeShort
	}
	var reply [4]byte
	copy(reply[:], serverReply)
	if bolt.AgreedVersion(reply) == 0 {
		return nil, errHandshakeRejected
	}
	return serverReply, nil
}
