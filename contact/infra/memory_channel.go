package infra

import (
	"context"
	"sync"

	"contact-gateway/contact/domain"

	"go.uber.org/zap"
)

// MemoryChannel guarda as mensagens em vez de enviá-las. Usado em
// desenvolvimento (mail.channel=memory) e nos testes.
type MemoryChannel struct {
	mu     sync.Mutex
	msgs   []domain.MailMessage
	logger *zap.Logger
}

func NewMemoryChannel(logger *zap.Logger) *MemoryChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryChannel{logger: logger}
}

func (c *MemoryChannel) Send(ctx context.Context, msg domain.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()

	c.logger.Info("mail captured in memory",
		zap.String("to", msg.To),
		zap.String("reply_to", msg.ReplyTo),
		zap.String("subject", msg.Subject))
	return nil
}

// Messages devolve uma cópia do que foi capturado até agora.
func (c *MemoryChannel) Messages() []domain.MailMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.MailMessage(nil), c.msgs...)
}
