package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"contact-gateway/contact/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	mu   sync.Mutex
	msgs []domain.MailMessage
	err  error
	// block faz Send ignorar ctx e ficar preso até o teste terminar.
	block chan struct{}
}

func (c *recordingChannel) Send(_ context.Context, msg domain.MailMessage) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return c.err
}

func (c *recordingChannel) sent() []domain.MailMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.MailMessage(nil), c.msgs...)
}

type failingThrottle struct{}

func (failingThrottle) Wait(context.Context) error { return errors.New("rate: Wait(n=1) would exceed context deadline") }

var ana = domain.Submission{Name: "Ana", Email: "ana@example.com", Subject: "Hi", Message: "Hello there"}

func TestDispatcher_SendsBuiltMessage(t *testing.T) {
	ch := &recordingChannel{}
	d := &Dispatcher{Channel: ch, Settings: testSettings}

	require.NoError(t, d.Send(context.Background(), ana))

	msgs := ch.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ana@example.com", msgs[0].ReplyTo)
	assert.Equal(t, "[Website Contact] Hi", msgs[0].Subject)
}

func TestDispatcher_MissingSettingsIsUnconfigured(t *testing.T) {
	ch := &recordingChannel{}

	for name, d := range map[string]*Dispatcher{
		"no channel":   {Settings: testSettings},
		"no sender":    {Channel: ch, Settings: MailSettings{To: "office@example.org"}},
		"no recipient": {Channel: ch, Settings: MailSettings{FromEmail: "noreply@example.org"}},
	} {
		t.Run(name, func(t *testing.T) {
			err := d.Send(context.Background(), ana)
			assert.ErrorIs(t, err, domain.ErrMailUnconfigured)
			assert.NotErrorIs(t, err, domain.ErrMailSendFailed)
		})
	}
	assert.Empty(t, ch.sent())
}

func TestDispatcher_ChannelUnconfiguredPassesThrough(t *testing.T) {
	ch := &recordingChannel{err: errors.Join(domain.ErrMailUnconfigured, errors.New("api key missing"))}
	d := &Dispatcher{Channel: ch, Settings: testSettings}

	err := d.Send(context.Background(), ana)
	assert.ErrorIs(t, err, domain.ErrMailUnconfigured)
	assert.NotErrorIs(t, err, domain.ErrMailSendFailed)
}

func TestDispatcher_ChannelErrorIsSendFailed(t *testing.T) {
	cause := errors.New("554 rejected")
	d := &Dispatcher{Channel: &recordingChannel{err: cause}, Settings: testSettings}

	err := d.Send(context.Background(), ana)
	assert.ErrorIs(t, err, domain.ErrMailSendFailed)
	assert.ErrorIs(t, err, cause)
}

func TestDispatcher_TimeoutIsSendFailed(t *testing.T) {
	ch := &recordingChannel{block: make(chan struct{})}
	defer close(ch.block)
	d := &Dispatcher{Channel: ch, Settings: testSettings, Timeout: 20 * time.Millisecond}

	start := time.Now()
	err := d.Send(context.Background(), ana)

	assert.ErrorIs(t, err, domain.ErrMailSendFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDispatcher_ThrottleFailureIsSendFailed(t *testing.T) {
	ch := &recordingChannel{}
	d := &Dispatcher{Channel: ch, Settings: testSettings, Throttle: failingThrottle{}}

	err := d.Send(context.Background(), ana)
	assert.ErrorIs(t, err, domain.ErrMailSendFailed)
	assert.Empty(t, ch.sent())
}
