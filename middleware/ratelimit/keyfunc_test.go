package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"contact-gateway/middleware/ratelimit/domain"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyFunc_PrefersFirstTrustedHeader(t *testing.T) {
	fn := DefaultKeyFunc("CF-Connecting-IP", "X-Forwarded-For")

	r := httptest.NewRequest(http.MethodPost, "http://example/api/contact", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("CF-Connecting-IP", " 203.0.113.9 ")
	r.Header.Set("X-Forwarded-For", "1.2.3.4")

	assert.Equal(t, domain.Key("203.0.113.9"), fn(r))
}

func TestDefaultKeyFunc_ForwardedForUsesFirstIP(t *testing.T) {
	fn := DefaultKeyFunc("CF-Connecting-IP", "X-Forwarded-For")

	r := httptest.NewRequest(http.MethodPost, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")

	assert.Equal(t, domain.Key("1.2.3.4"), fn(r))
}

func TestDefaultKeyFunc_IgnoresUntrustedHeaders(t *testing.T) {
	fn := DefaultKeyFunc()

	r := httptest.NewRequest(http.MethodPost, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")

	assert.Equal(t, domain.Key("10.0.0.9"), fn(r))
}

func TestDefaultKeyFunc_FallsBackToUnknown(t *testing.T) {
	fn := DefaultKeyFunc("X-Forwarded-For")

	r := httptest.NewRequest(http.MethodPost, "http://example/", nil)
	r.RemoteAddr = ""
	r.Header.Set("X-Forwarded-For", " , ")

	assert.Equal(t, domain.UnknownKey, fn(r))
}

func TestDefaultKeyFunc_RemoteAddrWithoutPort(t *testing.T) {
	fn := DefaultKeyFunc()

	r := httptest.NewRequest(http.MethodPost, "http://example/", nil)
	r.RemoteAddr = "10.0.0.7"

	assert.Equal(t, domain.Key("10.0.0.7"), fn(r))
}
