package proxy_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tara/internal/proxy"
)

func TestNewClient_Direct(t *testing.T) {
	c, err := proxy.NewClient("")
	require.NoError(t, err)
	assert.Nil(t, c.Transport)
	assert.Equal(t, proxy.DefaultTimeout, c.Timeout)
}

func TestNewClient_Socks(t *testing.T) {
	c, err := proxy.NewClient("127.0.0.1:8888")
	require.NoError(t, err)

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, tr.DialContext)
}
