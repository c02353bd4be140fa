package whatsapp

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/RoqueChristian/inventario/internal/config"
	"github.com/RoqueChristian/inventario/internal/domain/models"
	client "github.com/RoqueChristian/inventario/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// ErrNoRecipient is returned when a message has nowhere to go.
var ErrNoRecipient = errors.New("whatsapp recipient is not configured")

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	recipient string
	client    client.Client
	logger    *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		recipient: strings.TrimSpace(cfg.Recipient),
		client:    client,
		logger:    logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// SendDigest sends the dashboard digest to the configured recipient.
func (s *MetaWhatsAppService) SendDigest(ctx context.Context, digest string) error {
	return s.SendOutbound(ctx, models.OutboundMessageRequest{To: s.recipient, Message: digest})
}

// SendOutbound pushes a text message to req.To.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	to := normalizeNumber(req.To)
	if to == "" {
		return ErrNoRecipient
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	id, err := s.client.SendText(ctxWithTimeout, to, req.Message)
	if err != nil {
		return err
	}

	s.logger.Info("whatsapp message sent", zap.String("to", to), zap.String("message_id", id))
	return nil
}

// normalizeNumber keeps the digits of a phone number, the format the Cloud
// API expects for "to".
func normalizeNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
