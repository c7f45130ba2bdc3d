// Package identity resolves the quota key and tier for each request.
//
// Authenticated callers present a bearer JWT issued by the external
// identity provider; anything else degrades to the anonymous tier keyed
// by client IP. Resolution never fails a request: bad credentials and
// broken pro lookups both fail open to the stricter tier.
package identity
