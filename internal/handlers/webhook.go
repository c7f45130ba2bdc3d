package handlers

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/theayooolofin/Ilovevideo/internal/logging"
)

// maxWebhookBody bounds payment webhook payloads. Provider events are
// small JSON documents.
const maxWebhookBody = 64 * 1024

// signatureHeader carries the hex-encoded HMAC-SHA512 of the raw body.
const signatureHeader = "X-Signature"

// paymentEvent is the subset of the provider payload we act on.
type paymentEvent struct {
	Event  string `json:"event"`
	UserID string `json:"userId"`
}

// PaymentWebhook activates the pro flag for a user after a verified
// payment event. The signature is checked over the raw body before any
// parsing; an invalid signature has no side effects.
func (h *Handlers) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.config.WebhookEnabled() {
		writeJSONError(w, "webhooks are not configured", http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		writeJSONError(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if len(body) > maxWebhookBody {
		writeJSONError(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	if !verifySignature(body, r.Header.Get(signatureHeader), h.config.WebhookSecret) {
		logging.Warn("Payment webhook rejected: bad signature")
		writeJSONError(w, "invalid signature", http.StatusBadRequest)
		return
	}

	var event paymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeJSONError(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if event.Event != "payment.completed" {
		// Verified but irrelevant events are acknowledged so the
		// provider does not retry them.
		logging.Debug("Ignoring webhook event %q", event.Event)
		writeJSONStatus(w, "ignored")
		return
	}

	if event.UserID == "" {
		writeJSONError(w, "userId is required", http.StatusBadRequest)
		return
	}

	if err := h.store.SetPro(r.Context(), event.UserID); err != nil {
		logging.Error("Failed to activate pro flag: %v", err)
		writeJSONError(w, "activation failed", http.StatusInternalServerError)
		return
	}

	logging.Info("Pro activated for user %s", event.UserID)
	writeJSONStatus(w, "ok")
}

// verifySignature compares the provided hex HMAC-SHA512 against one
// computed over body. Comparison is constant time.
func verifySignature(body []byte, provided, secret string) bool {
	if provided == "" {
		return false
	}

	decoded, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(decoded, mac.Sum(nil))
}
