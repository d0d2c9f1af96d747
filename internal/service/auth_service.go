package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/oerms/oerms-backend/internal/config"
	"github.com/oerms/oerms-backend/internal/model"
	"github.com/oerms/oerms-backend/internal/rbac"
	"github.com/oerms/oerms-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// TokenPurpose distinguishes access tokens from single-purpose tokens.
type TokenPurpose string

const (
	PurposeAccess  TokenPurpose = ""
	PurposeRefresh TokenPurpose = "refresh"
	PurposeReset   TokenPurpose = "reset"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	Role        model.Role         `json:"role"`
	Permissions []model.Permission `json:"permissions"`
	Purpose     TokenPurpose       `json:"purpose,omitempty"`
	SessionID   string             `json:"sid,omitempty"`
	Extra       map[string]any     `json:"ext,omitempty"`
}

// SubjectID parses the subject claim.
func (c *Claims) SubjectID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// CredentialStore is the account lookup the auth service needs.
type CredentialStore interface {
	FindAccount(ctx context.Context, role model.Role, id uuid.UUID) (*model.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	UpdatePassword(ctx context.Context, role model.Role, id uuid.UUID, hash string) error
}

// ResetMailer delivers password reset tokens.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, account *model.Account, token string) error
}

// AuthService handles passwords, tokens, principal resolution and guards.
type AuthService struct {
	cfg      *config.Config
	registry *rbac.Registry
	store    CredentialStore
	rdb      *redis.Client
	mailer   ResetMailer
	cache    *expirable.LRU[string, *model.Principal]
	parser   *jwt.Parser
	now      func() time.Time

	dummyHash string
	log       zerolog.Logger
	audit     zerolog.Logger
}

// NewAuthService creates a new AuthService. rdb may be nil when token
// revocation is disabled.
func NewAuthService(cfg *config.Config, registry *rbac.Registry, store CredentialStore, rdb *redis.Client, log zerolog.Logger) (*AuthService, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	s := &AuthService{
		cfg:       cfg,
		registry:  registry,
		store:     store,
		rdb:       rdb,
		now:       time.Now,
		dummyHash: string(dummy),
		log:       log.With().Str("component", "auth").Logger(),
		audit:     log.With().Str("component", "security_audit").Logger(),
	}
	s.mailer = NewLogMailer(log, !cfg.IsProduction())

	if cfg.PrincipalCacheSize > 0 {
		s.cache = expirable.NewLRU[string, *model.Principal](cfg.PrincipalCacheSize, nil, cfg.PrincipalCacheTTL)
	}

	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(cfg.JWTIssuer),
		jwt.WithStrictDecoding(),
	)
	return s, nil
}

// SetClock replaces the time source used for issuing and verifying tokens.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

// SetMailer replaces the reset token delivery.
func (s *AuthService) SetMailer(m ResetMailer) {
	s.mailer = m
}

// ────────────────────────────────────────────────────────────────────────────
// Passwords
// ────────────────────────────────────────────────────────────────────────────

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// VerifyPassword compares a plaintext password against a bcrypt hash.
// Malformed hashes and any other error count as a mismatch.
func (s *AuthService) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ────────────────────────────────────────────────────────────────────────────
// Tokens
// ────────────────────────────────────────────────────────────────────────────

// IssueToken signs an access token for subject. ttl <= 0 uses the configured
// access lifetime.
func (s *AuthService) IssueToken(subject uuid.UUID, role model.Role, extra map[string]any, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.cfg.JWTAccessTTL
	}
	return s.issue(subject, role, PurposeAccess, "", extra, ttl)
}

// IssueResetToken signs a single-use password reset token.
func (s *AuthService) IssueResetToken(subject uuid.UUID, role model.Role) (string, error) {
	return s.issue(subject, role, PurposeReset, "", nil, s.cfg.JWTResetTTL)
}

// IssueRefreshToken signs a refresh token outside any session.
func (s *AuthService) IssueRefreshToken(subject uuid.UUID, role model.Role) (string, error) {
	return s.issue(subject, role, PurposeRefresh, "", nil, s.cfg.JWTRefreshTTL)
}

func (s *AuthService) issue(subject uuid.UUID, role model.Role, purpose TokenPurpose, sid string, extra map[string]any, ttl time.Duration) (string, error) {
	grants, err := s.registry.GrantsFor(role)
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.JWTIssuer,
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:        role,
		Permissions: grants,
		Purpose:     purpose,
		SessionID:   sid,
		Extra:       extra,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	tokensIssued.WithLabelValues(purposeLabel(purpose)).Inc()
	return signed, nil
}

// VerifyToken checks signature, algorithm, issuer and expiry and returns the
// claims. Permissions in the result are recomputed from the role; the
// embedded claim is never trusted.
func (s *AuthService) VerifyToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, s.fail("expired", rbac.ErrExpiredToken)
		case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
			return nil, s.fail("missing_claims", fmt.Errorf("%w: %v", rbac.ErrMissingClaims, err))
		default:
			return nil, s.fail("invalid", fmt.Errorf("%w: %v", rbac.ErrInvalidToken, err))
		}
	}

	if claims.Subject == "" || claims.Role == "" || claims.ID == "" {
		return nil, s.fail("missing_claims", rbac.ErrMissingClaims)
	}
	if _, err := claims.SubjectID(); err != nil {
		return nil, s.fail("invalid", fmt.Errorf("%w: malformed subject", rbac.ErrInvalidToken))
	}

	grants, err := s.registry.GrantsFor(claims.Role)
	if err != nil {
		s.log.Error().Err(err).Str("sub", claims.Subject).Msg("Signed token carries a role outside the registry")
		return nil, err
	}
	claims.Permissions = grants
	return claims, nil
}

// ResolvePrincipal turns an access token into the caller's principal.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (*model.Principal, error) {
	claims, err := s.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeAccess {
		return nil, s.fail("wrong_purpose", fmt.Errorf("%w: %s token presented as access token", rbac.ErrInvalidToken, claims.Purpose))
	}
	if err := s.checkRevoked(ctx, claims.ID, claims.SessionID); err != nil {
		return nil, err
	}

	key := signatureOf(token)
	if p, ok := s.cachedPrincipal(key); ok {
		return p, nil
	}

	id, _ := claims.SubjectID()
	acct, err := s.loadAccount(ctx, claims.Role, id)
	if err != nil {
		return nil, err
	}

	p := &model.Principal{
		ID:            acct.ID,
		Role:          claims.Role,
		Permissions:   claims.Permissions,
		IsActive:      acct.IsActive,
		InstitutionID: acct.InstitutionID,
		Email:         acct.Email,
		Name:          acct.FullName(),
		TokenID:       claims.ID,
		SessionID:     claims.SessionID,
		ExpiresAt:     claims.ExpiresAt.Time,
	}
	if s.cache != nil {
		s.cache.Add(key, p)
	}
	cp := *p
	return &cp, nil
}

func (s *AuthService) cachedPrincipal(key string) (*model.Principal, bool) {
	if s.cache == nil {
		return nil, false
	}
	p, ok := s.cache.Get(key)
	if !ok {
		principalCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if !s.now().Before(p.ExpiresAt) {
		s.cache.Remove(key)
		principalCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	principalCacheLookups.WithLabelValues("hit").Inc()
	cp := *p
	return &cp, true
}

// InvalidateAccount drops every cached principal of the account.
func (s *AuthService) InvalidateAccount(id uuid.UUID) {
	if s.cache == nil {
		return
	}
	for _, key := range s.cache.Keys() {
		if p, ok := s.cache.Peek(key); ok && p.ID == id {
			s.cache.Remove(key)
		}
	}
}

func (s *AuthService) loadAccount(ctx context.Context, role model.Role, id uuid.UUID) (*model.Account, error) {
	acct, err := s.store.FindAccount(ctx, role, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.fail("principal_not_found", rbac.ErrPrincipalNotFound)
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !acct.IsActive {
		return nil, s.fail("inactive", rbac.ErrInactiveAccount)
	}
	return acct, nil
}

// ────────────────────────────────────────────────────────────────────────────
// Revocation
// ────────────────────────────────────────────────────────────────────────────

// Revoke adds a token id to the denylist until exp. It is a no-op when
// revocation is disabled or the token already expired.
func (s *AuthService) Revoke(ctx context.Context, jti string, exp time.Time) error {
	if !s.revocationEnabled() || jti == "" {
		return nil
	}
	ttl := exp.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, config.CacheKey.RevokedTokenKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeSession denylists every token carrying sid. The entry lives for one
// refresh lifetime, which outlasts any token of the session issued so far.
func (s *AuthService) RevokeSession(ctx context.Context, sid string) error {
	if !s.revocationEnabled() || sid == "" {
		return nil
	}
	if err := s.rdb.Set(ctx, config.CacheKey.RevokedSessionKey(sid), 1, s.cfg.JWTRefreshTTL).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// consume marks a single-use token as spent. Exactly one caller wins for a
// given jti; the rest get rbac.ErrRevokedToken.
func (s *AuthService) consume(ctx context.Context, jti string, exp time.Time) error {
	if !s.revocationEnabled() {
		return nil
	}
	ttl := exp.Sub(s.now())
	if ttl <= 0 {
		return s.fail("expired", rbac.ErrExpiredToken)
	}
	ok, err := s.rdb.SetNX(ctx, config.CacheKey.RevokedTokenKey(jti), 1, ttl).Result()
	if err != nil {
		return fmt.Errorf("consume token: %w", err)
	}
	if !ok {
		return s.fail("revoked", rbac.ErrRevokedToken)
	}
	return nil
}

// release undoes consume when the operation behind it failed.
func (s *AuthService) release(ctx context.Context, jti string) {
	if !s.revocationEnabled() {
		return
	}
	if err := s.rdb.Del(ctx, config.CacheKey.RevokedTokenKey(jti)).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to release single-use token")
	}
}

func (s *AuthService) checkRevoked(ctx context.Context, jti, sid string) error {
	if !s.revocationEnabled() {
		return nil
	}
	keys := []string{config.CacheKey.RevokedTokenKey(jti)}
	if sid != "" {
		keys = append(keys, config.CacheKey.RevokedSessionKey(sid))
	}
	n, err := s.rdb.Exists(ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("check revocation: %w", err)
	}
	if n > 0 {
		return s.fail("revoked", rbac.ErrRevokedToken)
	}
	return nil
}

func (s *AuthService) revocationEnabled() bool {
	return s.cfg.RevocationEnabled() && s.rdb != nil
}

// ────────────────────────────────────────────────────────────────────────────
// Sessions
// ────────────────────────────────────────────────────────────────────────────

// Login checks credentials. Unknown emails still cost one bcrypt compare.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Account, error) {
	acct, err := s.store.FindAccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.VerifyPassword(password, s.dummyHash)
			return nil, s.fail("bad_credentials", rbac.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	if !s.VerifyPassword(password, acct.PasswordHash) {
		return nil, s.fail("bad_credentials", rbac.ErrInvalidCredentials)
	}
	if !acct.IsActive {
		return nil, s.fail("inactive", rbac.ErrInactiveAccount)
	}
	return acct, nil
}

// IssueSession starts a new session and returns its first token pair.
func (s *AuthService) IssueSession(acct *model.Account) (*model.TokenPair, error) {
	return s.issueSession(acct, uuid.NewString())
}

func (s *AuthService) issueSession(acct *model.Account, sid string) (*model.TokenPair, error) {
	access, err := s.issue(acct.ID, acct.Role, PurposeAccess, sid, nil, s.cfg.JWTAccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issue(acct.ID, acct.Role, PurposeRefresh, sid, nil, s.cfg.JWTRefreshTTL)
	if err != nil {
		return nil, err
	}
	return &model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.cfg.JWTAccessTTL.Seconds()),
	}, nil
}

// Refresh exchanges a refresh token for a new pair in the same session. Each
// refresh token is accepted once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	claims, err := s.VerifyToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeRefresh {
		return nil, s.fail("wrong_purpose", fmt.Errorf("%w: not a refresh token", rbac.ErrInvalidToken))
	}
	if err := s.checkRevoked(ctx, claims.ID, claims.SessionID); err != nil {
		return nil, err
	}
	if err := s.consume(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, err
	}

	id, _ := claims.SubjectID()
	acct, err := s.loadAccount(ctx, claims.Role, id)
	if err != nil {
		return nil, err
	}
	sid := claims.SessionID
	if sid == "" {
		sid = uuid.NewString()
	}
	return s.issueSession(acct, sid)
}

// Logout revokes the principal's access token and ends its session, so the
// session's refresh tokens stop working too.
func (s *AuthService) Logout(ctx context.Context, p *model.Principal) error {
	if err := s.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		return err
	}
	return s.RevokeSession(ctx, p.SessionID)
}

// Revalidate re-checks a principal resolved earlier, for long-lived
// connections that outlive the request that authenticated them.
func (s *AuthService) Revalidate(ctx context.Context, p *model.Principal) error {
	if !s.now().Before(p.ExpiresAt) {
		return s.fail("expired", rbac.ErrExpiredToken)
	}
	if err := s.checkRevoked(ctx, p.TokenID, p.SessionID); err != nil {
		return err
	}
	_, err := s.loadAccount(ctx, p.Role, p.ID)
	return err
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, p *model.Principal, current, next string) error {
	acct, err := s.loadAccount(ctx, p.Role, p.ID)
	if err != nil {
		return err
	}
	if !s.VerifyPassword(current, acct.PasswordHash) {
		return s.fail("bad_credentials", rbac.ErrInvalidCredentials)
	}
	if err := s.setPassword(ctx, acct, next); err != nil {
		return err
	}
	s.log.Info().Str("account_id", acct.ID.String()).Msg("Password changed")
	return nil
}

// ForgotPassword sends a reset token when the email belongs to an active
// account. The outcome is never reported to the caller.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	acct, err := s.store.FindAccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Debug().Msg("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("find account: %w", err)
	}
	if !acct.IsActive {
		return nil
	}

	token, err := s.IssueResetToken(acct.ID, acct.Role)
	if err != nil {
		return err
	}
	return s.mailer.SendPasswordReset(ctx, acct, token)
}

// ResetPassword sets a new password using a reset token. Each token works once
// when revocation is enabled.
func (s *AuthService) ResetPassword(ctx context.Context, token, next string) error {
	claims, err := s.VerifyToken(token)
	if err != nil {
		return err
	}
	if claims.Purpose != PurposeReset {
		return s.fail("wrong_purpose", fmt.Errorf("%w: not a reset token", rbac.ErrInvalidToken))
	}
	if err := s.consume(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}

	id, _ := claims.SubjectID()
	acct, err := s.loadAccount(ctx, claims.Role, id)
	if err == nil {
		err = s.setPassword(ctx, acct, next)
	}
	if err != nil {
		s.release(ctx, claims.ID)
		return err
	}
	s.log.Info().Str("account_id", acct.ID.String()).Msg("Password reset")
	return nil
}

func (s *AuthService) setPassword(ctx context.Context, acct *model.Account, password string) error {
	hash, err := s.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, acct.Role, acct.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.InvalidateAccount(acct.ID)
	return nil
}

// ────────────────────────────────────────────────────────────────────────────
// Guards
// ────────────────────────────────────────────────────────────────────────────

// Permissions returns the grants of role, or nil for an unknown role.
func (s *AuthService) Permissions(role model.Role) []model.Permission {
	grants, _ := s.registry.GrantsFor(role)
	return grants
}

// RequireRole is rbac.RequireRole with an audit trail.
func (s *AuthService) RequireRole(p *model.Principal, roles ...model.Role) (*model.Principal, error) {
	out, err := rbac.RequireRole(p, roles...)
	if errors.Is(err, rbac.ErrForbidden) {
		s.deny(p).Interface("required_roles", roles).Msg("Role check failed")
	}
	return out, err
}

// RequirePermission is rbac.RequirePermission with an audit trail.
func (s *AuthService) RequirePermission(p *model.Principal, perm model.Permission) (*model.Principal, error) {
	out, err := rbac.RequirePermission(p, perm)
	if errors.Is(err, rbac.ErrForbidden) {
		s.deny(p).Str("required_permission", string(perm)).Msg("Permission check failed")
	}
	return out, err
}

// RequireAnyPermission is rbac.RequireAnyPermission with an audit trail.
func (s *AuthService) RequireAnyPermission(p *model.Principal, perms ...model.Permission) (*model.Principal, error) {
	out, err := rbac.RequireAnyPermission(p, perms...)
	if errors.Is(err, rbac.ErrForbidden) {
		s.deny(p).Interface("required_any", perms).Msg("Permission check failed")
	}
	return out, err
}

// Authorize audits a failed ownership check and returns rbac.ErrForbidden.
// It returns nil when allowed is true.
func (s *AuthService) Authorize(p *model.Principal, allowed bool, action string) error {
	if allowed {
		return nil
	}
	if p == nil {
		return rbac.ErrUnauthenticated
	}
	s.deny(p).Str("action", action).Msg("Ownership check failed")
	return rbac.ErrForbidden
}

func (s *AuthService) deny(p *model.Principal) *zerolog.Event {
	authzDenials.WithLabelValues(string(p.Role)).Inc()
	return s.audit.Warn().Str("principal_id", p.ID.String()).Str("role", string(p.Role))
}

func (s *AuthService) fail(reason string, err error) error {
	authFailures.WithLabelValues(reason).Inc()
	s.audit.Debug().Str("reason", reason).Err(err).Msg("Authentication rejected")
	return err
}

// signatureOf returns the signature segment of a compact JWS.
func signatureOf(token string) string {
	if i := strings.LastIndexByte(token, '.'); i >= 0 {
		return token[i+1:]
	}
	return token
}

func purposeLabel(p TokenPurpose) string {
	if p == PurposeAccess {
		return "access"
	}
	return string(p)
}
