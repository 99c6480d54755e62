// Package local is an in-process implementation of the auth/data service.
//
// The Provider holds the shared tables (credentials, profiles, roles, refresh tokens)
// and hands out one Client per browser session. Profile and role rows are created by a
// provisioning step after sign-up, which may be configured to lag behind account creation
// the way a database trigger does.
package local

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/dayflow/backend"
	errs "github.com/jrsteele09/dayflow/internal/errors"
	"github.com/jrsteele09/dayflow/internal/utils"
	"github.com/jrsteele09/dayflow/token"
	"github.com/jrsteele09/dayflow/token/refresh"
	"github.com/jrsteele09/dayflow/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Repos holds all repository dependencies for the Provider
type Repos struct {
	Users    users.UserRepo
	Profiles users.ProfileRepo
	Roles    users.RoleRepo
}

// Provider is the shared side of the local auth service
type Provider struct {
	repos             Repos
	tokens            *token.Manager
	refresh           *refresh.Manager
	provisioningDelay time.Duration
	nowTime           func() time.Time
}

var _ backend.ClientFactory = (*Provider)(nil)

// ProviderOption defines a function type to modify the Provider instance.
type ProviderOption func(*Provider)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.nowTime = nowFunc
	}
}

// WithProvisioningDelay makes profile and role provisioning run this long after sign-up
// instead of inline.
func WithProvisioningDelay(d time.Duration) ProviderOption {
	return func(p *Provider) {
		p.provisioningDelay = d
	}
}

func NewProvider(repos Repos, tokens *token.Manager, refreshManager *refresh.Manager, options ...ProviderOption) (*Provider, error) {
	if repos.Users == nil {
		return nil, errors.New("[local.NewProvider] Users repo is required")
	}
	if repos.Profiles == nil {
		return nil, errors.New("[local.NewProvider] Profiles repo is required")
	}
	if repos.Roles == nil {
		return nil, errors.New("[local.NewProvider] Roles repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[local.NewProvider] token manager is required")
	}
	if refreshManager == nil {
		return nil, errors.New("[local.NewProvider] refresh manager is required")
	}

	p := &Provider{
		repos:   repos,
		tokens:  tokens,
		refresh: refreshManager,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// NewClient returns a signed-out client for a new browser session
func (p *Provider) NewClient() backend.Client {
	return &Client{
		provider:  p,
		listeners: make(map[uint64]backend.ChangeListener),
	}
}

// Account describes a user to create directly, bypassing sign-up validation
type Account struct {
	Email                  string
	Password               string
	Name                   string
	Role                   users.Role
	Department             string
	Position               string
	Phone                  string
	Company                string
	PasswordChangeRequired bool
}

// CreateAccount creates the credentials, profile and role of an account in one step.
// Used for seeding; an existing email is left untouched and its ID returned.
func (p *Provider) CreateAccount(account Account) (string, error) {
	email := users.NormaliseEmail(account.Email)
	if existing, err := p.repos.Users.GetByEmail(email); err == nil {
		return existing.ID, nil
	}

	hash, err := users.HashPassword(account.Password)
	if err != nil {
		return "", errors.Wrap(err, "[local.Provider.CreateAccount] HashPassword")
	}
	user := &users.User{
		ID:                     uuid.New().String(),
		Email:                  email,
		PasswordHash:           hash,
		DateJoined:             p.nowTime(),
		PasswordChangeRequired: account.PasswordChangeRequired,
	}
	if err := p.repos.Users.Upsert(user); err != nil {
		return "", errors.Wrap(err, "[local.Provider.CreateAccount] Users.Upsert")
	}

	profile := newProfile(user, backend.SignUpMetadata{
		Name:    account.Name,
		Company: account.Company,
		Phone:   account.Phone,
		Role:    account.Role,
	})
	profile.Department = utils.OptionalString(account.Department)
	profile.Position = utils.OptionalString(account.Position)
	if err := p.repos.Profiles.UpsertProfile(profile); err != nil {
		return "", errors.Wrap(err, "[local.Provider.CreateAccount] UpsertProfile")
	}
	if err := p.repos.Roles.SetRole(user.ID, account.Role); err != nil {
		return "", errors.Wrap(err, "[local.Provider.CreateAccount] SetRole")
	}
	return user.ID, nil
}

// signIn validates credentials and issues a fresh identity
func (p *Provider) signIn(email, password string) (*backend.Identity, error) {
	user, err := p.repos.Users.GetByEmail(users.NormaliseEmail(email))
	if err != nil {
		// Unknown emails and wrong passwords are indistinguishable to the caller
		return nil, errs.ErrInvalidCredentials
	}
	if user.Blocked {
		return nil, errs.ErrUserBlocked
	}
	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, errs.ErrInvalidCredentials
	}

	user.LastLogin = p.nowTime()
	if err := p.repos.Users.Upsert(user); err != nil {
		log.Err(err).Str("user_id", user.ID).Msg("Failed to record last login")
	}
	return p.issueIdentity(user)
}

// signUp creates the credentials and schedules provisioning of profile and role
func (p *Provider) signUp(email, password string, metadata backend.SignUpMetadata) (*backend.Identity, error) {
	email = users.NormaliseEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, errs.InvalidRequest("a valid email is required")
	}
	if strings.TrimSpace(metadata.Name) == "" {
		return nil, errs.InvalidRequest("name is required")
	}
	if !metadata.Role.Valid() {
		return nil, errs.InvalidRequest("role must be HR or EMPLOYEE")
	}
	if err := users.ValidatePasswordStrength(password); err != nil {
		return nil, err
	}
	if _, err := p.repos.Users.GetByEmail(email); err == nil {
		return nil, errs.ErrEmailExists
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "HashPassword")
	}
	user := &users.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		DateJoined:   p.nowTime(),
	}
	if err := p.repos.Users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "Users.Upsert")
	}

	if p.provisioningDelay > 0 {
		time.AfterFunc(p.provisioningDelay, func() {
			if err := p.provision(user, metadata); err != nil {
				log.Err(err).Str("user_id", user.ID).Msg("Delayed provisioning failed")
			}
		})
	} else if err := p.provision(user, metadata); err != nil {
		return nil, err
	}

	return p.issueIdentity(user)
}

// provision creates the profile and role rows of a new account
func (p *Provider) provision(user *users.User, metadata backend.SignUpMetadata) error {
	if err := p.repos.Profiles.UpsertProfile(newProfile(user, metadata)); err != nil {
		return errors.Wrap(err, "[local.Provider.provision] UpsertProfile")
	}
	if err := p.repos.Roles.SetRole(user.ID, metadata.Role); err != nil {
		return errors.Wrap(err, "[local.Provider.provision] SetRole")
	}
	return nil
}

func (p *Provider) issueIdentity(user *users.User) (*backend.Identity, error) {
	accessToken, expiresAt, err := p.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refreshToken, err := p.refresh.Create(user.ID)
	if err != nil {
		return nil, err
	}
	return &backend.Identity{
		UserID:                 user.ID,
		Email:                  user.Email,
		AccessToken:            accessToken,
		RefreshToken:           refreshToken,
		ExpiresAt:              expiresAt,
		PasswordChangeRequired: user.PasswordChangeRequired,
	}, nil
}

// refreshIdentity rotates the refresh token and issues a new access token
func (p *Provider) refreshIdentity(refreshToken string) (*backend.Identity, error) {
	newRefresh, userID, err := p.refresh.Rotate(refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := p.repos.Users.GetByID(userID)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrUserNotFound, "refresh")
	}
	if user.Blocked {
		_ = p.refresh.Revoke(newRefresh)
		return nil, errs.ErrUserBlocked
	}
	accessToken, expiresAt, err := p.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &backend.Identity{
		UserID:                 user.ID,
		Email:                  user.Email,
		AccessToken:            accessToken,
		RefreshToken:           newRefresh,
		ExpiresAt:              expiresAt,
		PasswordChangeRequired: user.PasswordChangeRequired,
	}, nil
}

// authorize checks the access token presented by a client
func (p *Provider) authorize(identity *backend.Identity) error {
	if identity == nil {
		return errs.ErrUnauthenticated
	}
	claims, err := p.tokens.Parse(identity.AccessToken)
	if err != nil {
		return err
	}
	if claims.Subject != identity.UserID {
		return errs.Wrapf(errs.ErrInvalidToken, "subject mismatch")
	}
	return nil
}

func (p *Provider) changePassword(userID, currentPassword, newPassword string) error {
	user, err := p.repos.Users.GetByID(userID)
	if err != nil {
		return errs.ErrUserNotFound
	}
	if !users.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return errs.InvalidRequest("current password is incorrect")
	}
	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	hash, err := users.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "HashPassword")
	}
	user.PasswordHash = hash
	user.PasswordChangeRequired = false
	return p.repos.Users.Upsert(user)
}

func newProfile(user *users.User, metadata backend.SignUpMetadata) *users.Profile {
	id := strings.ToUpper(strings.ReplaceAll(user.ID, "-", ""))
	if len(id) > 6 {
		id = id[:6]
	}
	return &users.Profile{
		UserID:     user.ID,
		Name:       strings.TrimSpace(metadata.Name),
		Email:      user.Email,
		Phone:      utils.OptionalString(strings.TrimSpace(metadata.Phone)),
		Company:    utils.OptionalString(strings.TrimSpace(metadata.Company)),
		EmployeeID: utils.Ptr(fmt.Sprintf("EMP-%s", id)),
	}
}
