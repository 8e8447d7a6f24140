package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"contact-gateway/contact/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendChannel_PostsEmail(t *testing.T) {
	var got resendEmail
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
	}))
	defer srv.Close()

	ch := NewResendChannel(ResendConfig{APIKey: "re_test", BaseURL: srv.URL + "/"})
	require.NoError(t, ch.Send(context.Background(), testMail))

	assert.Equal(t, "Bearer re_test", auth)
	assert.Equal(t, "/emails", path)
	assert.Equal(t, "Website Contact <noreply@example.org>", got.From)
	assert.Equal(t, []string{"office@example.org"}, got.To)
	assert.Equal(t, "ana@example.com", got.ReplyTo)
	assert.Equal(t, testMail.Subject, got.Subject)
	assert.Equal(t, testMail.HTML, got.HTML)
	assert.Equal(t, testMail.Text, got.Text)
}

func TestResendChannel_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer srv.Close()

	ch := NewResendChannel(ResendConfig{APIKey: "re_test", BaseURL: srv.URL})
	err := ch.Send(context.Background(), testMail)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
	assert.Contains(t, err.Error(), "invalid from")
	assert.NotErrorIs(t, err, domain.ErrMailUnconfigured)
}

func TestResendChannel_MissingKeyIsUnconfigured(t *testing.T) {
	ch := NewResendChannel(ResendConfig{})
	assert.ErrorIs(t, ch.Send(context.Background(), testMail), domain.ErrMailUnconfigured)
}
