package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/id"
)

const bearerPrefix = "bearer "

// Claims is the token payload: subject is the user id, plus the tenant the
// user acts for.
type Claims struct {
	Email     string `json:"email,omitempty"`
	CompanyID string `json:"companyId"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator returns an Authenticator for secret. Tokens it signs
// expire after ttl.
func NewAuthenticator(secret string, ttl time.Duration) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("api: jwt secret not configured")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Sign issues a token for t.
func (a *Authenticator) Sign(t ledger.Tenant, email string) (string, error) {
	now := a.now()
	claims := &Claims{
		Email:     email,
		CompanyID: t.CompanyID.String(),
		Role:      string(t.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   t.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses raw and returns the tenant it names.
func (a *Authenticator) Verify(raw string) (ledger.Tenant, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	var claims Claims
	token, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return ledger.Tenant{}, errors.New("invalid or expired token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return ledger.Tenant{}, errors.New("token missing subject")
	}
	companyID, err := id.ParseCompanyID(claims.CompanyID)
	if err != nil {
		return ledger.Tenant{}, errors.New("token carries an invalid company id")
	}
	role := ledger.Role(claims.Role)
	if !role.Valid() {
		return ledger.Tenant{}, errors.New("token carries an unknown role")
	}
	return ledger.Tenant{CompanyID: companyID, UserID: claims.Subject, Role: role}, nil
}

// Middleware rejects requests without a valid bearer token and places the
// tenant on the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if len(h) < len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
			problem(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid Authorization header")
			return
		}
		t, err := a.Verify(strings.TrimSpace(h[len(bearerPrefix):]))
		if err != nil {
			problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(ledger.WithTenant(r.Context(), t)))
	})
}
