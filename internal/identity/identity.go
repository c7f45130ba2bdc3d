package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/theayooolofin/Ilovevideo/internal/logging"
)

// Tier is the quota tier of a caller.
type Tier string

const (
	// TierAnonymous is an unauthenticated caller, keyed by client IP.
	TierAnonymous Tier = "anonymous"
	// TierAuthenticated is a verified bearer token without the pro flag.
	TierAuthenticated Tier = "authenticated"
	// TierPro is a verified bearer token with the pro flag: no quota ceiling.
	TierPro Tier = "pro"
)

// Context is the per-request identity. It is computed fresh on every
// request and never persisted.
type Context struct {
	// Key is the opaque quota key: "user:<id>" or a raw client IP.
	Key string
	// Tier determines the quota ceiling.
	Tier Tier
	// UserID is set only for authenticated callers.
	UserID string
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
	ErrWrongIssuer  = errors.New("unexpected token issuer")
)

// ProChecker answers the best-effort pro-flag side lookup.
type ProChecker interface {
	IsPro(ctx context.Context, userID string) (bool, error)
}

// Resolver turns an incoming request into an identity Context. It never
// fails: absent or invalid credentials degrade to the anonymous tier, and
// a failed pro lookup degrades to the authenticated tier. Failing open to
// the stricter tier keeps credential problems from turning into 500s.
type Resolver struct {
	secret []byte
	issuer string
	pro    ProChecker
}

// NewResolver creates a Resolver. secret is the HS256 shared secret of
// the external identity provider; issuer, if non-empty, must match the
// token's iss claim. pro may be nil, which disables the pro tier.
func NewResolver(secret []byte, issuer string, pro ProChecker) *Resolver {
	return &Resolver{secret: secret, issuer: issuer, pro: pro}
}

// tokenClaims is the subset of provider claims this service reads.
type tokenClaims struct {
	Subject   string `json:"sub"`
	Issuer    string `json:"iss"`
	ExpiresAt int64  `json:"exp"`
}

// Resolve determines the caller's quota key and tier.
//
// The anonymous key is the first address in X-Forwarded-For, then
// X-Real-IP, then the transport peer address. Without a trusted reverse
// proxy in front this is spoofable by header manipulation; that is
// inherited, documented behavior of the quota design, not something this
// layer tries to fix.
func (r *Resolver) Resolve(req *http.Request) Context {
	userID, err := r.verifyBearer(req)
	if err != nil || userID == "" {
		if err != nil && !errors.Is(err, errNoCredentials) {
			logging.Debug("Bearer verification failed, treating as anonymous: %v", err)
		}
		return Context{Key: clientIP(req), Tier: TierAnonymous}
	}

	ident := Context{
		Key:    "user:" + userID,
		Tier:   TierAuthenticated,
		UserID: userID,
	}

	if r.pro != nil {
		pro, err := r.pro.IsPro(req.Context(), userID)
		if err != nil {
			// Best effort only: a broken lookup must never reject the
			// request, and must never grant the unlimited tier.
			logging.Warn("Pro lookup failed for user %s: %v", userID, err)
		} else if pro {
			ident.Tier = TierPro
		}
	}

	return ident
}

var errNoCredentials = errors.New("no credentials presented")

// verifyBearer extracts and verifies the Authorization bearer token,
// returning the subject claim.
func (r *Resolver) verifyBearer(req *http.Request) (string, error) {
	header := req.Header.Get("Authorization")
	if header == "" {
		return "", errNoCredentials
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", ErrInvalidToken
	}

	if len(r.secret) == 0 {
		return "", errors.New("no verification key configured")
	}

	tok, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return "", ErrInvalidToken
	}

	claims := &tokenClaims{}
	if err := tok.Claims(r.secret, claims); err != nil {
		return "", ErrInvalidToken
	}

	if claims.ExpiresAt > 0 && claims.ExpiresAt < time.Now().Unix() {
		return "", ErrTokenExpired
	}

	if r.issuer != "" && claims.Issuer != r.issuer {
		return "", ErrWrongIssuer
	}

	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// clientIP extracts the caller's address for anonymous quota keying.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
