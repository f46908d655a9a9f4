package utilities

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	resolver, err := NewClientIPResolver([]string{"10.0.0.0/8", " 192.0.2.1 "})
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded by trusted proxy", headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, remote: "10.0.0.1:1234", want: "203.0.113.7"},
		{name: "client supplied hops are skipped", headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.7, 10.0.0.2"}, remote: "10.0.0.1:1234", want: "203.0.113.7"},
		{name: "every hop trusted", headers: map[string]string{"X-Forwarded-For": "10.0.0.3, 10.0.0.2"}, remote: "10.0.0.1:1234", want: "10.0.0.3"},
		{name: "garbage hop", headers: map[string]string{"X-Forwarded-For": "not-an-ip"}, remote: "10.0.0.1:1234", want: "10.0.0.1"},
		{name: "real ip from trusted proxy", headers: map[string]string{"X-Real-IP": "198.51.100.2"}, remote: "192.0.2.1:1234", want: "198.51.100.2"},
		{name: "untrusted peer ignores forwarded for", headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, remote: "198.51.100.9:1234", want: "198.51.100.9"},
		{name: "untrusted peer ignores real ip", headers: map[string]string{"X-Real-IP": "203.0.113.7"}, remote: "198.51.100.9:1234", want: "198.51.100.9"},
		{name: "remote addr", remote: "192.0.2.10:5555", want: "192.0.2.10"},
		{name: "remote without port", remote: "192.0.2.10", want: "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, resolver.ClientIP(r))
		})
	}
}

func TestClientIP_NoTrustedProxies(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "198.51.100.9:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	r.Header.Set("X-Real-IP", "203.0.113.8")

	resolver, err := NewClientIPResolver(nil)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.9", resolver.ClientIP(r))

	var unset *ClientIPResolver
	assert.Equal(t, "198.51.100.9", unset.ClientIP(r))
}

func TestNewClientIPResolver_Invalid(t *testing.T) {
	_, err := NewClientIPResolver([]string{"10.0.0.0/33"})
	assert.Error(t, err)

	_, err = NewClientIPResolver([]string{"proxy.internal"})
	assert.Error(t, err)
}
