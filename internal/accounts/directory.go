// Package accounts implements the user directory: registration, login,
// session state, and activity tracking.
package accounts

import (
	"context"
	"strings"
	"sync"
	"time"

	"reformhub/api/internal/kvstore"
	"reformhub/api/internal/platform"
)

const (
	usersKey   = "platform_users"
	sessionKey = "current_user"
)

// Roles a registrant can pick.
const (
	RoleFaculty    = "faculty"
	RolePrincipal  = "principal"
	RoleStudent    = "student"
	RoleAdmin      = "admin"
	RoleResearcher = "researcher"
)

// Activity deltas: every tracked interaction is worth one point, authoring
// a post five.
const (
	activityDelta = 1
	postDelta     = 5
)

// Account is the stored user record, keyed by normalized email.
type Account struct {
	ID               platform.ID   `json:"id"`
	Email            string        `json:"email"`
	PasswordHash     string        `json:"password"`
	Name             string        `json:"name"`
	Institution      string        `json:"institution"`
	Role             string        `json:"role"`
	State            string        `json:"state"`
	RegistrationDate time.Time     `json:"registrationDate"`
	Verified         bool          `json:"verified"`
	Posts            []platform.ID `json:"posts"`
	Proposals        []platform.ID `json:"proposals"`
	ActivityScore    int           `json:"activityScore"`
	LastActivity     *time.Time    `json:"lastActivity,omitempty"`
}

// PublicProfile is an account view with the credential hash removed. Only
// profiles ever reach the session medium or a caller.
type PublicProfile struct {
	ID               platform.ID   `json:"id"`
	Email            string        `json:"email"`
	Name             string        `json:"name"`
	Institution      string        `json:"institution"`
	Role             string        `json:"role"`
	State            string        `json:"state"`
	RegistrationDate time.Time     `json:"registrationDate"`
	Verified         bool          `json:"verified"`
	Posts            []platform.ID `json:"posts"`
	Proposals        []platform.ID `json:"proposals"`
	ActivityScore    int           `json:"activityScore"`
}

func (a Account) Profile() PublicProfile {
	return PublicProfile{
		ID:               a.ID,
		Email:            a.Email,
		Name:             a.Name,
		Institution:      a.Institution,
		Role:             a.Role,
		State:            a.State,
		RegistrationDate: a.RegistrationDate,
		Verified:         a.Verified,
		Posts:            a.Posts,
		Proposals:        a.Proposals,
		ActivityScore:    a.ActivityScore,
	}
}

// RegisterRequest contains registration parameters.
type RegisterRequest struct {
	Email       string
	Password    string
	Name        string
	Institution string
	Role        string
	State       string
}

// Directory owns the account map (durable medium) and the current session
// (volatile medium). Sessions transition anonymous -> authenticated on a
// successful register or login and back on logout; failed attempts leave
// the session untouched.
type Directory struct {
	mu      sync.Mutex
	durable *kvstore.Store
	session *kvstore.Store
	hasher  Hasher
	users   map[string]Account
}

func NewDirectory(ctx context.Context, durable, session *kvstore.Store, hasher Hasher) *Directory {
	return &Directory{
		durable: durable,
		session: session,
		hasher:  hasher,
		users:   kvstore.Get(ctx, durable, usersKey, map[string]Account{}),
	}
}

// Register creates an account and signs the new user in. Validation order
// matters: missing fields, then duplicate email, then password strength.
func (d *Directory) Register(ctx context.Context, req RegisterRequest) (PublicProfile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if req.Email == "" || req.Password == "" || req.Name == "" || req.Institution == "" {
		return PublicProfile{}, ErrValidation
	}

	email := strings.ToLower(req.Email)
	if _, exists := d.users[email]; exists {
		return PublicProfile{}, ErrDuplicateEmail
	}

	if len(req.Password) < 6 {
		return PublicProfile{}, ErrWeakPassword
	}

	hash, err := d.hasher.Hash(req.Password)
	if err != nil {
		return PublicProfile{}, err
	}

	account := Account{
		ID:               platform.NewID(),
		Email:            email,
		PasswordHash:     hash,
		Name:             req.Name,
		Institution:      req.Institution,
		Role:             req.Role,
		State:            req.State,
		RegistrationDate: time.Now().UTC(),
		Posts:            []platform.ID{},
		Proposals:        []platform.ID{},
	}

	d.users[email] = account
	d.persist(ctx)

	profile := account.Profile()
	d.setSession(ctx, profile)
	return profile, nil
}

// Login authenticates by email and password and signs the user in.
func (d *Directory) Login(ctx context.Context, email, password string) (PublicProfile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	account, ok := d.users[strings.ToLower(email)]
	if !ok {
		return PublicProfile{}, ErrUnknownEmail
	}

	if !d.hasher.Verify(account.PasswordHash, password) {
		return PublicProfile{}, ErrInvalidCredentials
	}

	profile := account.Profile()
	d.setSession(ctx, profile)
	return profile, nil
}

// Logout clears the session. Safe to call when anonymous.
func (d *Directory) Logout(ctx context.Context) {
	d.session.Delete(ctx, sessionKey)
}

// Current returns the signed-in profile, if any.
func (d *Directory) Current(ctx context.Context) (PublicProfile, bool) {
	profile := kvstore.Get[*PublicProfile](ctx, d.session, sessionKey, nil)
	if profile == nil {
		return PublicProfile{}, false
	}
	return *profile, true
}

// Lookup returns the profile for a normalized email without touching the
// session.
func (d *Directory) Lookup(email string) (PublicProfile, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	account, ok := d.users[strings.ToLower(email)]
	if !ok {
		return PublicProfile{}, false
	}
	return account.Profile(), true
}

// RecordActivity adds one activity point to the account identified by
// email. An empty email falls back to the session profile, preserving the
// single-user tab semantics for anonymous flows; no-op when neither names
// an account.
func (d *Directory) RecordActivity(ctx context.Context, email string) {
	d.credit(ctx, email, activityDelta, 0)
}

// CreditPost rewards the authoring account and records the post id against
// it. The email must identify the authenticated author; the session is only
// a fallback when no caller identity exists.
func (d *Directory) CreditPost(ctx context.Context, email string, postID platform.ID) {
	d.credit(ctx, email, postDelta, postID)
}

func (d *Directory) credit(ctx context.Context, email string, delta int, postID platform.ID) {
	if email == "" {
		current, ok := d.Current(ctx)
		if !ok {
			return
		}
		email = current.Email
	}
	email = strings.ToLower(email)

	d.mu.Lock()
	defer d.mu.Unlock()

	account, ok := d.users[email]
	if !ok {
		return
	}

	account.ActivityScore += delta
	now := time.Now().UTC()
	account.LastActivity = &now
	if postID != 0 {
		account.Posts = append(account.Posts, postID)
	}
	d.users[email] = account
	d.persist(ctx)

	// Refresh the cached session copy only when it belongs to the credited
	// account; crediting one user must not overwrite another's session.
	if current, ok := d.Current(ctx); ok && current.Email == account.Email {
		d.setSession(ctx, account.Profile())
	}
}

func (d *Directory) persist(ctx context.Context) {
	d.durable.Set(ctx, usersKey, d.users)
}

func (d *Directory) setSession(ctx context.Context, profile PublicProfile) {
	d.session.Set(ctx, sessionKey, profile)
}
