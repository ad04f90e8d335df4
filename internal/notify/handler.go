package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNoResponseURL is returned when a context is present but cannot be replied to.
var ErrNoResponseURL = errors.New("notification context has no response_url")

// Handler delivers pipeline outcomes to the chat channel named by a Context.
// A nil Context means the run has no channel and every call is a no-op.
type Handler struct {
	config Config
	sender Sender
	logger *zap.Logger
}

// NewHandler creates a handler that delivers through Slack.
func NewHandler(config Config, logger *zap.Logger) *Handler {
	return NewHandlerWithSender(config, NewSender(), logger)
}

// NewHandlerWithSender creates a handler with a custom sender (for testing).
func NewHandlerWithSender(config Config, sender Sender, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		config: config,
		sender: sender,
		logger: logger.Named("notify"),
	}
}

// Config returns the handler's notification configuration
func (h *Handler) Config() Config {
	return h.config
}

// Notify sends text to the channel identified by nctx.
// Delivery errors are logged and returned to the caller.
func (h *Handler) Notify(ctx context.Context, nctx *Context, text string) error {
	if nctx == nil {
		return nil
	}

	url := nctx.ResponseURL()
	if url == "" {
		h.logger.Error("cannot notify", zap.Error(ErrNoResponseURL))
		return ErrNoResponseURL
	}

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	if err := h.sender.Send(ctx, url, NewMessage(text)); err != nil {
		h.logger.Error("delayed reply failed",
			zap.String("channel", nctx.OriginalRequest.ChannelID),
			zap.Error(err))
		return fmt.Errorf("sending delayed reply: %w", err)
	}

	h.logger.Debug("delayed reply sent", zap.String("channel", nctx.OriginalRequest.ChannelID))
	return nil
}
