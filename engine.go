package credvault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/MrEthical07/credvault/identity"
	internalaudit "github.com/MrEthical07/credvault/internal/audit"
	"github.com/MrEthical07/credvault/internal/flows"
	"github.com/MrEthical07/credvault/internal/platform/logger"
	"github.com/MrEthical07/credvault/jwt"
	"github.com/MrEthical07/credvault/lifecycle"
	"github.com/MrEthical07/credvault/password"
)

// Engine is the credential service and authentication gate. Build it with [Builder].
//
// Engine instances are safe for concurrent use once built.
type Engine struct {
	config       Config
	flows        flows.Service
	lifecycle    *lifecycle.Manager
	users        identity.Store
	jwtManager   *jwt.Manager
	passwordHash *password.Hasher
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       *slog.Logger
	clock        func() time.Time
}

// Close drains the audit dispatcher. The Engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events dropped because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AccessTTL is the lifetime of issued access envelopes.
func (e *Engine) AccessTTL() time.Duration {
	if e == nil || e.lifecycle == nil {
		return 0
	}
	return e.lifecycle.AccessTTL()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOr(ctx, e.logger)
}

func (e *Engine) ready() bool {
	return e != nil && e.lifecycle != nil && e.flows.Initialized()
}

// Register creates an identity. It returns ErrEmailAlreadyRegistered when the
// normalised email exists. No credentials are issued.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	if !e.ready() {
		return RegisterResult{}, ErrEngineNotReady
	}
	if identity.NormalizeEmail(in.Email) == "" || in.Password == "" {
		e.metricInc(MetricRegisterFailure)
		return RegisterResult{}, ErrInvalidInput
	}

	res := e.flows.Register(ctx, identity.CreateInput{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}, in.Password)

	if res.Failure != flows.RegisterFailureNone {
		var err error
		switch res.Failure {
		case flows.RegisterFailureEmailTaken:
			e.metricInc(MetricRegisterDuplicate)
			err = ErrEmailAlreadyRegistered
		case flows.RegisterFailureHash:
			e.metricInc(MetricRegisterFailure)
			if errors.Is(res.Err, password.ErrEmptySecret) || errors.Is(res.Err, password.ErrSecretTooLong) {
				err = ErrInvalidInput
			} else {
				err = fmt.Errorf("%w: %w", ErrInternal, res.Err)
			}
		default:
			e.metricInc(MetricRegisterFailure)
			err = storeFailure(res.Err)
		}
		e.emitAudit(ctx, auditRecord{eventType: auditEventRegisterFailure, err: err})
		return RegisterResult{}, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditRecord{eventType: auditEventRegisterSuccess, success: true, subjectID: res.Identity.ID})
	e.log(ctx).Info("identity registered", "subject_id", res.Identity.ID)

	return RegisterResult{
		Identity:  res.Identity.Public(),
		ExpiresIn: int64(e.lifecycle.AccessTTL() / time.Second),
	}, nil
}

// Login verifies email and password and issues a credential pair. Unknown email, wrong
// password and an inactive account all return ErrInvalidCredential.
func (e *Engine) Login(ctx context.Context, email, rawPassword string) (LoginResult, error) {
	if !e.ready() {
		return LoginResult{}, ErrEngineNotReady
	}

	res := e.flows.Login(ctx, email, rawPassword)
	switch res.Failure {
	case flows.LoginFailureNone:
	case flows.LoginFailureEmptyPassword,
		flows.LoginFailureUnknownEmail,
		flows.LoginFailurePasswordMismatch,
		flows.LoginFailureInactive:
		why := loginFailureReason(res.Failure)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditRecord{
			eventType: auditEventLoginFailure,
			subjectID: res.Identity.ID,
			err:       ErrInvalidCredential,
			metadata:  reason(why),
		})
		e.log(ctx).Debug("login rejected", "reason", why, "subject_id", res.Identity.ID)
		return LoginResult{}, ErrInvalidCredential
	default:
		err := storeFailure(res.Err)
		e.metricInc(MetricLoginError)
		e.emitAudit(ctx, auditRecord{eventType: auditEventLoginFailure, subjectID: res.Identity.ID, err: err})
		e.log(ctx).Error("login failed", "subject_id", res.Identity.ID, "error", err)
		return LoginResult{}, err
	}

	if res.Rehashed {
		e.metricInc(MetricPasswordRehash)
	}
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditRecord{
		eventType: auditEventLoginSuccess,
		success:   true,
		subjectID: res.Identity.ID,
		tokenID:   res.Pair.AccessTokenID,
	})

	return LoginResult{
		TokenPair: tokenPair(res.Pair),
		Identity:  res.Identity.Public(),
	}, nil
}

func loginFailureReason(kind flows.LoginFailureKind) string {
	switch kind {
	case flows.LoginFailureEmptyPassword:
		return "empty_password"
	case flows.LoginFailureUnknownEmail:
		return "unknown_email"
	case flows.LoginFailurePasswordMismatch:
		return "password_mismatch"
	case flows.LoginFailureInactive:
		return "inactive"
	default:
		return "error"
	}
}

// Refresh exchanges a refresh secret for a new pair. The presented secret is revoked
// whether or not the caller receives the result. Unknown, used and expired secrets
// return ErrInvalidCredential.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	if !e.ready() {
		return RefreshResult{}, ErrEngineNotReady
	}

	res := e.flows.Refresh(ctx, refreshToken)
	switch res.Failure {
	case flows.RefreshFailureNone:
	case flows.RefreshFailureInvalidCredential:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditRecord{eventType: auditEventRefreshInvalid, err: ErrInvalidCredential})
		return RefreshResult{}, ErrInvalidCredential
	default:
		err := storeFailure(res.Err)
		e.metricInc(MetricRefreshError)
		e.emitAudit(ctx, auditRecord{eventType: auditEventRefreshInvalid, err: err, metadata: reason("rotate_failed")})
		e.log(ctx).Error("refresh rotation failed", "error", err)
		return RefreshResult{}, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditRecord{
		eventType: auditEventRefreshSuccess,
		success:   true,
		subjectID: res.Pair.SubjectID,
		tokenID:   res.Pair.AccessTokenID,
	})

	return RefreshResult{TokenPair: tokenPair(res.Pair)}, nil
}

// Logout revokes every refresh record of subjectID and blocklists accessToken. Failing
// to blocklist is logged and reported in the result but is not an error. Failing to
// revoke the refresh chain is.
func (e *Engine) Logout(ctx context.Context, subjectID, accessToken string) (LogoutResult, error) {
	if !e.ready() {
		return LogoutResult{}, ErrEngineNotReady
	}

	res := e.flows.Logout(ctx, subjectID, accessToken)
	out := LogoutResult{
		RevokedRefreshTokens: res.Outcome.RevokedRefresh,
		BlockedTokenID:       res.Outcome.BlockedTokenID,
	}

	if res.Outcome.BlocklistErr != nil {
		out.BlocklistFailed = true
		e.metricInc(MetricLogoutBlocklistFailure)
		e.emitAudit(ctx, auditRecord{
			eventType: auditEventLogoutBlocklistError,
			subjectID: subjectID,
			tokenID:   res.Outcome.BlockedTokenID,
			err:       storeFailure(res.Outcome.BlocklistErr),
		})
		e.log(ctx).Warn("access token blocklist failed during logout",
			"subject_id", subjectID,
			"token_id", res.Outcome.BlockedTokenID,
			"error", res.Outcome.BlocklistErr,
		)
	}

	if res.Err != nil {
		err := storeFailure(res.Err)
		e.emitAudit(ctx, auditRecord{eventType: auditEventLogout, subjectID: subjectID, err: err})
		e.log(ctx).Error("refresh revocation failed during logout", "subject_id", subjectID, "error", err)
		return out, err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditRecord{
		eventType: auditEventLogout,
		success:   true,
		subjectID: subjectID,
		tokenID:   res.Outcome.BlockedTokenID,
		metadata: func() map[string]string {
			return map[string]string{"revoked_refresh": strconv.FormatInt(res.Outcome.RevokedRefresh, 10)}
		},
	})

	return out, nil
}

// Authenticate resolves a bearer envelope to its identity. Every rejection wraps
// ErrUnauthorized together with the specific kind (ErrInvalidToken, ErrTokenExpired,
// ErrTokenRevoked, ErrIdentityNotFound or ErrIdentityInactive). Store failures fail
// closed with ErrTransient or ErrInternal.
func (e *Engine) Authenticate(ctx context.Context, bearer string) (identity.Public, error) {
	if !e.ready() {
		return identity.Public{}, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricAuthenticateLatency, time.Since(start)) }()
	}

	res := e.flows.Authenticate(ctx, bearer)
	var tokenID string
	if res.Claims != nil {
		tokenID = res.Claims.TokenID()
	}

	var err error
	switch res.Failure {
	case flows.AuthenticateFailureNone:
		e.metricInc(MetricAuthenticateSuccess)
		return res.Identity.Public(), nil
	case flows.AuthenticateFailureInvalidToken:
		err = unauthorized(ErrInvalidToken)
	case flows.AuthenticateFailureTokenExpired:
		err = unauthorized(ErrTokenExpired)
	case flows.AuthenticateFailureTokenRevoked:
		e.metricInc(MetricAuthenticateRevoked)
		err = unauthorized(ErrTokenRevoked)
	case flows.AuthenticateFailureIdentityNotFound:
		err = unauthorized(ErrIdentityNotFound)
	case flows.AuthenticateFailureIdentityInactive:
		err = unauthorized(ErrIdentityInactive)
	default:
		err = storeFailure(res.Err)
		e.metricInc(MetricAuthenticateError)
		e.emitAudit(ctx, auditRecord{eventType: auditEventAuthenticateFailure, tokenID: tokenID, err: err})
		e.log(ctx).Error("authenticate failed", "token_id", tokenID, "error", err)
		return identity.Public{}, err
	}

	e.metricInc(MetricAuthenticateFailure)
	e.emitAudit(ctx, auditRecord{
		eventType: auditEventAuthenticateFailure,
		subjectID: res.Identity.ID,
		tokenID:   tokenID,
		err:       err,
	})
	e.log(ctx).Debug("authenticate rejected", "token_id", tokenID, "error", err)
	return identity.Public{}, err
}

// PurgeExpired deletes dead blocklist entries and refresh records past the retention
// window. Lookups already ignore expired rows, so this only bounds storage.
func (e *Engine) PurgeExpired(ctx context.Context) (PurgeResult, error) {
	if !e.ready() {
		return PurgeResult{}, ErrEngineNotReady
	}

	start := time.Now()
	res, err := e.lifecycle.PurgeExpired(ctx)
	out := PurgeResult{
		BlocklistEntries: res.Blocklist,
		RefreshRecords:   res.Refresh,
		Duration:         time.Since(start),
	}
	if res.Blocklist > 0 {
		e.metrics.Add(MetricPurgedBlocklist, uint64(res.Blocklist))
	}
	if res.Refresh > 0 {
		e.metrics.Add(MetricPurgedRefresh, uint64(res.Refresh))
	}
	if err != nil {
		e.emitAudit(ctx, auditRecord{eventType: auditEventPurge, err: err})
		return out, err
	}

	e.emitAudit(ctx, auditRecord{
		eventType: auditEventPurge,
		success:   true,
		metadata: func() map[string]string {
			return map[string]string{
				"blocklist": strconv.FormatInt(res.Blocklist, 10),
				"refresh":   strconv.FormatInt(res.Refresh, 10),
			}
		},
	})
	return out, nil
}

// allowSubject runs between consuming a refresh record and minting its replacement.
// A deleted or deactivated identity cannot rotate.
func (e *Engine) allowSubject(ctx context.Context, subjectID string) error {
	user, err := e.users.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrInvalidCredential
		}
		return storeFailure(err)
	}
	if !user.IsActive {
		return ErrInvalidCredential
	}
	return nil
}

func tokenPair(p lifecycle.CredentialPair) TokenPair {
	return TokenPair{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    TokenType,
		ExpiresIn:    p.ExpiresIn(),
	}
}
