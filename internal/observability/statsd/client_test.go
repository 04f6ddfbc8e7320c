package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) net.PacketConn {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })
	return pc
}

func readLine(t *testing.T, pc net.PacketConn) string {
	t.Helper()
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1024)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestClient_WritesLines(t *testing.T) {
	pc := listen(t)
	c, err := NewClient(Config{
		Enabled:    true,
		Address:    pc.LocalAddr().String(),
		Prefix:     " .darah_dashboard. ",
		GlobalTags: map[string]string{"env": "prod", " service ": " dashboard "},
	})
	require.NoError(t, err)
	defer c.Close()
	require.True(t, c.Enabled())

	c.Count("upstream.request", 1, map[string]string{"env": "stage", "result": " success ", "": "x"})
	assert.Equal(t, "darah_dashboard.upstream.request:1|c|#env:stage,result:success,service:dashboard", readLine(t, pc))

	c.Timing("mutation/duration", 1500*time.Microsecond, nil)
	assert.Equal(t, "darah_dashboard.mutation_duration:1.5|ms|#env:prod,service:dashboard", readLine(t, pc))

	c.Gauge("cache..warm-pages", 7, nil)
	assert.Equal(t, "darah_dashboard.cache.warm_pages:7|g|#env:prod,service:dashboard", readLine(t, pc))
}

func TestClient_DisabledAndClosed(t *testing.T) {
	c, err := NewClient(Config{Enabled: true, Address: "   "})
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	c.Count("ignored", 1, nil)

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	assert.NoError(t, nilClient.Close())
	nilClient.Count("ignored", 1, nil)

	pc := listen(t)
	c, err = NewClient(Config{Enabled: true, Address: pc.LocalAddr().String()})
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.False(t, c.Enabled())
	assert.NoError(t, c.Close())
}

func TestNewClient_DialError(t *testing.T) {
	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statsd dial")
}

func TestFormatTags(t *testing.T) {
	assert.Empty(t, formatTags(nil, nil))
	assert.Equal(t, "|#a:1,b:2", formatTags(map[string]string{"b": "2"}, map[string]string{"a": "1"}))
}
