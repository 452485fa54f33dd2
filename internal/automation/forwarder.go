package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"willybot/internal/command"
	"willybot/internal/observability"
	"willybot/pkg/errors"
)

const (
	// DefaultAnswer is used when the webhook response has no usable field
	DefaultAnswer = "No he recibido respuesta válida."

	requestTimeout = 120 * time.Second
)

// Payload is the normalized body sent to the automation webhook. Options
// holds the command-specific fields; the top-level duplicates are kept for
// backward compatibility with existing n8n flows.
type Payload struct {
	Command       string         `json:"command"`
	InteractionID string         `json:"interactionId,omitempty"`
	CorrelationID string         `json:"correlationId"`
	UserID        string         `json:"userId"`
	UserName      string         `json:"userName"`
	ChannelID     string         `json:"channelId"`
	GuildID       string         `json:"guildId"`
	Options       map[string]any `json:"options"`

	Texto    string `json:"texto,omitempty"`
	Activada *bool  `json:"activada,omitempty"`
}

// Forwarder relays command invocations to the configured webhook and maps
// the response into reply text.
type Forwarder struct {
	url     string
	secret  string
	http    *http.Client
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewForwarder creates a Forwarder. secret may be empty; when set it is
// sent as the x-willybot-secret header so nobody else can call the
// webhook. metrics may be nil.
func NewForwarder(url, secret string, logger *zap.Logger, metrics *observability.Metrics) *Forwarder {
	return &Forwarder{
		url:     url,
		secret:  secret,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logger,
		metrics: metrics,
	}
}

// BuildPayload normalizes an invocation into the webhook payload.
func BuildPayload(inv *command.Invocation) *Payload {
	p := &Payload{
		Command:       inv.Command,
		InteractionID: inv.InteractionID,
		CorrelationID: inv.CorrelationID,
		UserID:        inv.UserID,
		UserName:      inv.UserName,
		ChannelID:     inv.ChannelID,
		GuildID:       inv.GuildID,
		Options:       map[string]any{},
	}

	switch inv.Command {
	case command.CommandWillybot:
		p.Texto = inv.Texto
		p.Options["texto"] = inv.Texto
	case command.CommandCensura:
		activada := inv.Activada
		p.Activada = &activada
		p.Options["activada"] = activada
	}

	return p
}

// Forward posts the payload and extracts the answer text. Transport
// failures return a webhook error; a non-2xx status or an unreadable body
// degrade to the default answer instead of failing the command.
func (f *Forwarder) Forward(ctx context.Context, inv *command.Invocation) (string, error) {
	payload := BuildPayload(inv)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", f.fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return "", f.fail(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if f.secret != "" {
		req.Header.Set("x-willybot-secret", f.secret)
	}

	f.logger.Debug("calling automation webhook",
		zap.String("command", inv.Command),
		zap.String("correlation_id", inv.CorrelationID),
	)

	resp, err := f.http.Do(req)
	if err != nil {
		return "", f.fail(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		f.logger.Warn("failed to read webhook response body", zap.Error(err))
		return DefaultAnswer, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Warn("webhook returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("command", inv.Command),
		)
		return DefaultAnswer, nil
	}

	answer := extractAnswer(data)

	f.logger.Debug("webhook answered",
		zap.String("command", inv.Command),
		zap.Int("answer_length", len(answer)),
	)

	return answer, nil
}

// fail counts a webhook transport failure and wraps the cause. Degraded
// responses (non-2xx, unreadable body) are not failures and not counted.
func (f *Forwarder) fail(err error) error {
	if f.metrics != nil {
		f.metrics.WebhookErrors.Inc()
	}
	return errors.NewWebhookFailed(f.url, err)
}

// extractAnswer walks the answer/text/message fallback chain.
func extractAnswer(data []byte) string {
	var parsed struct {
		Answer  string `json:"answer"`
		Text    string `json:"text"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return DefaultAnswer
	}
	switch {
	case parsed.Answer != "":
		return parsed.Answer
	case parsed.Text != "":
		return parsed.Text
	case parsed.Message != "":
		return parsed.Message
	default:
		return DefaultAnswer
	}
}
