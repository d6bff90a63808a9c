package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() Record {
	return Record{
		TTLSeconds: 300,
		Servers: []RoleServers{
			{Role: "ROUTE", Addresses: []string{"127.0.0.1:9001", "127.0.0.1:9002", "127.0.0.1:9003"}},
			{Role: "READ", Addresses: []string{"127.0.0.1:9004", "127.0.0.1:9005"}},
			{Role: "WRITE", Addresses: []string{"127.0.0.1:9006"}},
		},
	}
}

// S1 — parse a valid record.
func TestParseRoutingInfo_ValidRecord(t *testing.T) {
	table, err := ParseRoutingInfo([]Record{validRecord()})
	require.NoError(t, err)

	assert.Equal(t, []Address{addr(9001), addr(9002), addr(9003)}, table.Routers.Slice())
	assert.Equal(t, []Address{addr(9004), addr(9005)}, table.Readers.Slice())
	assert.Equal(t, []Address{addr(9006)}, table.Writers.Slice())
	assert.True(t, table.IsFresh(ReadMode))
	assert.True(t, table.IsFresh(WriteMode))
}

// S2 — an unknown role is silently ignored.
func TestParseRoutingInfo_UnknownRoleIgnored(t *testing.T) {
	record := validRecord()
	record.Servers = append(record.Servers, RoleServers{Role: "MAGIC", Addresses: []string{"127.0.0.1:9007"}})

	table, err := ParseRoutingInfo([]Record{record})
	require.NoError(t, err)

	assert.Equal(t, []Address{addr(9001), addr(9002), addr(9003)}, table.Routers.Slice())
	assert.Equal(t, []Address{addr(9004), addr(9005)}, table.Readers.Slice())
	assert.Equal(t, []Address{addr(9006)}, table.Writers.Slice())
}

// S3 — invalid shapes fail with RoutingProtocolError.
func TestParseRoutingInfo_RejectsWrongRecordCount(t *testing.T) {
	_, err := ParseRoutingInfo(nil)
	require.Error(t, err)
	assert.IsType(t, &RoutingProtocolError{}, err)

	_, err = ParseRoutingInfo([]Record{validRecord(), validRecord()})
	require.Error(t, err)
	assert.IsType(t, &RoutingProtocolError{}, err)
}

func TestParseRoutingInfo_RejectsBadAddress(t *testing.T) {
	record := Record{TTLSeconds: 1, Servers: []RoleServers{
		{Role: "ROUTE", Addresses: []string{"not a host:port:!"}},
	}}
	_, err := ParseRoutingInfo([]Record{record})
	require.Error(t, err)
	assert.IsType(t, &RoutingProtocolError{}, err)
}

// S6 — servers() is the union of all three role sets.
func TestParseRoutingInfo_ServersUnion(t *testing.T) {
	record := Record{
		TTLSeconds: 300,
		Servers: []RoleServers{
			{Role: "ROUTE", Addresses: []string{"127.0.0.1:9001", "127.0.0.1:9002", "127.0.0.1:9003"}},
			{Role: "READ", Addresses: []string{"127.0.0.1:9001", "127.0.0.1:9005"}},
			{Role: "WRITE", Addresses: []string{"127.0.0.1:9002"}},
		},
	}
	table, err := ParseRoutingInfo([]Record{record})
	require.NoError(t, err)

	servers := table.Servers()
	assert.Len(t, servers, 4)
	for _, port := range []int{9001, 9002, 9003, 9005} {
		assert.Contains(t, servers, addr(port))
	}
}
