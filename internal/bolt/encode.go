package bolt

import (
	"bytes"
	"encoding/binary"
)

// Struct signature bytes for the messages the routing oracle needs to send.
// These mirror the tag bytes TypeFromByte already decodes on the way back.
const (
	sigHello   = 0x01
	sigRun     = 0x10
	sigPullAll = 0x3f
	sigGoodbye = 0x02
)

// Encoder builds Packstream-encoded, chunk-framed Bolt messages. It is the
// write-side counterpart of the Parse/ParseTiny* functions in bolt.go: the
// same tiny-map/tiny-string/tiny-array marker bytes, just emitted instead of
// read.
type Encoder struct {
	buf bytes.Buffer
}

// writeTinyString writes s as a Packstream tiny-string (len <= 15) or a
// regular string, matching what ParseTinyString/ParseString expect on the
// other end.
func (e *Encoder) writeTinyString(s string) {
	if len(s) <= 15 {
		e.buf.WriteByte(0x80 | byte(len(s)))
		e.buf.WriteString(s)
		return
	}
	e.writeString(s)
}

func (e *Encoder) writeString(s string) {
	e.buf.WriteByte(0xd0)
	e.buf.WriteByte(byte(len(s)))
	e.buf.WriteString(s)
}

// writeMap writes kv as a Packstream tiny-map of string->string entries,
// which is all the routing oracle needs (routing context, auth tokens).
func (e *Encoder) writeMap(kv map[string]string) {
	e.buf.WriteByte(0xa0 | byte(len(kv)))
	for k, v := range kv {
		e.writeTinyString(k)
		e.writeTinyString(v)
	}
}

// writeNestedMap writes kv as a tiny-map whose values are themselves
// string->string tiny-maps, used for RUN's parameters field when it wraps a
// routing context under a "context" key.
func (e *Encoder) writeNestedMap(kv map[string]map[string]string) {
	e.buf.WriteByte(0xa0 | byte(len(kv)))
	for k, v := range kv {
		e.writeTinyString(k)
		e.writeMap(v)
	}
}

func (e *Encoder) writeEmptyList() {
	e.buf.WriteByte(0x90)
}

func (e *Encoder) writeStructHeader(fields int, sig byte) {
	e.buf.WriteByte(0xb0 | byte(fields))
	e.buf.WriteByte(sig)
}

// frame wraps the accumulated struct body in the two-byte-length-prefix,
// 0x00-0x00-terminated chunk format DirectConn.ReadMessage expects.
func (e *Encoder) frame() []byte {
	body := e.buf.Bytes()
	out := make([]byte, 0, len(body)+4)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(body)))
	out = append(out, lenBuf[:]...)
	out = append(out, body...)
	out = append(out, 0x00, 0x00)
	return out
}

// EncodeHello builds a HELLO message carrying the given auth/session
// extras (user_agent, scheme, principal, credentials, ...).
func EncodeHello(extra map[string]string) *Message {
	var e Encoder
	e.writeStructHeader(1, sigHello)
	e.writeMap(extra)
	return &Message{T: HelloMsg, Data: e.frame()}
}

// EncodeRun builds a RUN message for statement with an optional routing
// context wrapped under parameters["context"], the convention the routing
// procedures key off of.
func EncodeRun(statement string, routingContext map[string]string) *Message {
	var e Encoder
	e.writeStructHeader(2, sigRun)
	e.writeTinyString(statement)
	if len(routingContext) == 0 {
		e.buf.WriteByte(0xa0)
	} else {
		e.writeNestedMap(map[string]map[string]string{"context": routingContext})
	}
	return &Message{T: RunMsg, Data: e.frame()}
}

// EncodePullAll builds a PULL_ALL (legacy, zero-arity) message.
func EncodePullAll() *Message {
	var e Encoder
	e.writeStructHeader(0, sigPullAll)
	return &Message{T: PullMsg, Data: e.frame()}
}

// EncodeGoodbye builds a GOODBYE message.
func EncodeGoodbye() *Message {
	var e Encoder
	e.writeStructHeader(0, sigGoodbye)
	return &Message{T: GoodbyeMsg, Data: e.frame()}
}
