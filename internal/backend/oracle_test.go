package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberGRX/neobolt/internal/bolt"
)

func TestIsProcedureNotFound(t *testing.T) {
	assert.False(t, isProcedureNotFound(assert.AnError))
	assert.False(t, isProcedureNotFound(nil))

	var err error = fmtErr("Neo.ClientError.Procedure.ProcedureNotFound: no such procedure")
	assert.True(t, isProcedureNotFound(err))
}

type fmtErr string

func (e fmtErr) Error() string { return string(e) }

func TestDecodeRoutingRecord_RoundTripsThroughEncodedStruct(t *testing.T) {
	// Build a RECORD message by hand: struct(1 field) -> [ttl, servers].
	// 0xb1 0x71 (RECORD, 1 field) -> 0x91 (array of 1) -> 0x92 (ttl, servers)
	body := []byte{0xb1, 0x71, 0x91, 0x92}
	body = append(body, 0x0a)       // ttl = 10 (tiny-int)
	body = append(body, 0x91)       // servers: array of 1
	body = append(body, 0xa2)       // tiny-map, 2 entries
	body = append(body, 0x84, 'r', 'o', 'l', 'e')
	body = append(body, 0x85, 'W', 'R', 'I', 'T', 'E')
	body = append(body, 0x89, 'a', 'd', 'd', 'r', 'e', 's', 's', 'e', 's')
	body = append(body, 0x91, 0x8e)
	body = append(body, []byte("127.0.0.1:9001")...)

	msg := frameBody(body)

	rec, err := decodeRoutingRecord(msg)
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.TTLSeconds)
	require.Len(t, rec.Servers, 1)
	assert.Equal(t, "WRITE", rec.Servers[0].Role)
	assert.Equal(t, []string{"127.0.0.1:9001"}, rec.Servers[0].Addresses)
}

func frameBody(body []byte) *bolt.Message {
	lenBuf := []byte{byte(len(body) >> 8), byte(len(body))}
	data := append(append(append([]byte{}, lenBuf...), body...), 0x00, 0x00)
	return &bolt.Message{T: bolt.RecordMsg, Data: data}
}
