package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
)

// IdentityState is the three-way outcome of token inspection. Anonymous means
// no token was presented; Invalid means a token was presented but failed
// verification. Callers decide per endpoint how to treat Invalid.
type IdentityState int

const (
	Anonymous IdentityState = iota
	Authenticated
	Invalid
)

type Identity struct {
	State   IdentityState
	OwnerID uuid.UUID
	Email   string
}

type contextKey string

const identityKey contextKey = "identity"

type IdentityConfig struct {
	IssuerURL string
	Audience  string
}

// IdentityMiddleware verifies bearer tokens against an OIDC provider and
// attaches an Identity to the request context. It never rejects requests
// itself; RequireOwner does that for endpoints needing an authenticated owner.
type IdentityMiddleware struct {
	verifier *oidc.IDTokenVerifier
}

type identityClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
}

func NewIdentityMiddleware(cfg IdentityConfig) (*IdentityMiddleware, error) {
	provider, err := oidc.NewProvider(context.Background(), cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: cfg.Audience,
	})

	return &IdentityMiddleware{verifier: verifier}, nil
}

// Resolve inspects the Authorization header and stores the resulting Identity
// in the context. Absent header yields Anonymous; malformed or unverifiable
// tokens yield Invalid.
func (m *IdentityMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident := m.resolve(r)
		ctx := context.WithValue(r.Context(), identityKey, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *IdentityMiddleware) resolve(r *http.Request) Identity {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return Identity{State: Anonymous}
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return Identity{State: Invalid}
	}

	token, err := m.verifier.Verify(r.Context(), tokenString)
	if err != nil {
		return Identity{State: Invalid}
	}

	var claims identityClaims
	if err := token.Claims(&claims); err != nil {
		return Identity{State: Invalid}
	}

	ownerID, err := uuid.Parse(claims.Sub)
	if err != nil {
		// Subjects that are not UUIDs get a stable derived owner identity.
		ownerID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(claims.Sub))
	}

	return Identity{State: Authenticated, OwnerID: ownerID, Email: claims.Email}
}

// RequireOwner rejects requests whose identity is not Authenticated.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident := GetIdentity(r.Context())
		if ident.State != Authenticated {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RejectInvalid turns an Invalid identity into a 401 while letting Anonymous
// and Authenticated through. Used on upload: a presented-but-bad token is an
// error, not a silent downgrade to guest.
func RejectInvalid(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r.Context()).State == Invalid {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetIdentity returns the Identity stored by Resolve, or Anonymous if none.
func GetIdentity(ctx context.Context) Identity {
	if ident, ok := ctx.Value(identityKey).(Identity); ok {
		return ident
	}
	return Identity{State: Anonymous}
}

// WithIdentity returns a context carrying ident. Exposed for tests and for
// wiring that bypasses the HTTP middleware.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}
