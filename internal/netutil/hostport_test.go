package netutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinSplitHostPortRoundTrip(t *testing.T) {
	hostAndPort := JoinHostPort("10.0.0.5", 9090)
	assert.Equal(t, "10.0.0.5:9090", hostAndPort)

	host, port, err := SplitHostPort(hostAndPort)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", host)
	assert.Equal(t, 9090, port)
}

func TestSplitHostPortRejectsMalformed(t *testing.T) {
	_, _, err := SplitHostPort("not-a-host-port")
	assert.Error(t, err)
}

func TestDiscoverHostFailsLoudlyOnUnknownInterface(t *testing.T) {
	_, err := DiscoverHost("definitely-not-a-real-interface-xyz")
	assert.Error(t, err)
}

func TestDiscoverHostEmptyInterfaceUsesHostname(t *testing.T) {
	host, err := DiscoverHost("")
	require.NoError(t, err)
	assert.NotEmpty(t, host)
}
