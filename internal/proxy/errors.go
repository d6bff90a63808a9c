package proxy

import "errors"

var (
	errBadMagic          = errors.New("proxy: client sent an invalid bolt magic preamble")
	errHandshakeShort    = errors.New("proxy: server handshake reply was not 4 bytes")
	errHandshakeRejected = errors.New("proxy: server rejected every proposed bolt version")
)
