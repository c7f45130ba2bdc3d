package handlers

import (
	"net/http"

	"github.com/theayooolofin/Ilovevideo/internal/identity"
	"github.com/theayooolofin/Ilovevideo/internal/logging"
)

// UsageResponse reports the caller's quota state. Limit and Remaining
// are null for pro users, who have no ceiling.
type UsageResponse struct {
	Count     int    `json:"count"`
	Limit     *int   `json:"limit"`
	Remaining *int   `json:"remaining"`
	IsPro     bool   `json:"isPro"`
	Tier      string `json:"tier"`
}

// Usage returns the caller's current daily usage and limit.
func (h *Handlers) Usage(w http.ResponseWriter, r *http.Request) {
	ident := h.resolver.Resolve(r)

	count, err := h.store.Peek(r.Context(), ident.Key)
	if err != nil {
		logging.Error("Usage lookup failed for tier %s: %v", ident.Tier, err)
		writeJSONError(w, "usage lookup failed", http.StatusInternalServerError)
		return
	}

	response := UsageResponse{
		Count: count,
		IsPro: ident.Tier == identity.TierPro,
		Tier:  string(ident.Tier),
	}

	if limit := h.limitFor(ident.Tier); limit != nil {
		response.Limit = limit
		remaining := *limit - count
		if remaining < 0 {
			remaining = 0
		}
		response.Remaining = &remaining
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}
