package handlers

import (
	"time"

	"github.com/theayooolofin/Ilovevideo/internal/identity"
	"github.com/theayooolofin/Ilovevideo/internal/startup"
	"github.com/theayooolofin/Ilovevideo/internal/transcode"
	"github.com/theayooolofin/Ilovevideo/internal/usage"
)

type Handlers struct {
	resolver  *identity.Resolver
	store     usage.Store
	runner    *transcode.Runner
	config    *startup.Config
	startTime time.Time
}

func New(resolver *identity.Resolver, store usage.Store, runner *transcode.Runner, config *startup.Config) *Handlers {
	return &Handlers{
		resolver:  resolver,
		store:     store,
		runner:    runner,
		config:    config,
		startTime: time.Now(),
	}
}

// limitFor returns the daily job limit for a tier. Pro has no ceiling,
// reported as nil.
func (h *Handlers) limitFor(tier identity.Tier) *int {
	switch tier {
	case identity.TierPro:
		return nil
	case identity.TierAuthenticated:
		limit := h.config.UserLimit
		return &limit
	default:
		limit := h.config.GuestLimit
		return &limit
	}
}
