package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	errs "github.com/jrsteele09/dayflow/internal/errors"
	"github.com/pkg/errors"
)

// Claims are the access token claims. The token proves identity only; roles are
// fetched separately and are never carried in the token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Manager issues and validates HS256 access tokens
type Manager struct {
	secret      []byte
	issuer      string
	accessTTL   time.Duration
	nowFunc     func() time.Time
	signingAlgo jwt.SigningMethod
	revoked     RevocationList
}

type ManagerOption func(*Manager)

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = nowFunc
	}
}

// WithRevocationList replaces the default in-memory revocation list
func WithRevocationList(list RevocationList) ManagerOption {
	return func(m *Manager) {
		m.revoked = list
	}
}

func New(secret []byte, issuer string, accessTTL time.Duration, options ...ManagerOption) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errors.New("[token.New] secret is required")
	}
	if accessTTL <= 0 {
		return nil, errors.New("[token.New] access token expiry must be positive")
	}
	m := &Manager{
		secret:      secret,
		issuer:      issuer,
		accessTTL:   accessTTL,
		nowFunc:     time.Now,
		signingAlgo: jwt.SigningMethodHS256,
		revoked:     NewInMemoryRevocationList(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Issue creates a signed access token for the user and returns it with its expiry
func (m *Manager) Issue(userID, email string) (string, time.Time, error) {
	now := m.nowFunc()
	expiresAt := now.Add(m.accessTTL)
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(m.signingAlgo, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "[token.Manager.Issue] failed to sign access token")
	}
	return signed, expiresAt, nil
}

// Parse validates the signature, issuer and time claims of an access token.
// An expired token yields errs.ErrSessionExpired, anything else errs.ErrInvalidToken.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{m.signingAlgo.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errs.ErrSessionExpired
		}
		return nil, errs.Wrapf(errs.ErrInvalidToken, "%v", err)
	}
	if claims.Subject == "" {
		return nil, errs.Wrapf(errs.ErrInvalidToken, "missing subject")
	}
	if m.revoked.IsRevoked(claims.ID) {
		return nil, errs.Wrapf(errs.ErrInvalidToken, "token revoked")
	}
	return claims, nil
}

// Revoke rejects a still-valid access token from now on. Tokens that no longer parse
// need no revocation and are ignored.
func (m *Manager) Revoke(tokenStr string) error {
	claims, err := m.Parse(tokenStr)
	if err != nil {
		return nil
	}
	m.revoked.Cleanup(m.nowFunc())
	return errors.Wrap(m.revoked.Add(claims.ID, claims.ExpiresAt.Time), "[token.Manager.Revoke]")
}
