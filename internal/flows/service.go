package flows

import (
	"context"

	"github.com/MrEthical07/credvault/identity"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Login.Users != nil && s.deps.Authenticate.ParseAccess != nil
}

func (s Service) Register(ctx context.Context, in identity.CreateInput, rawPassword string) RegisterResult {
	return RunRegister(ctx, in, rawPassword, s.deps.Register)
}

func (s Service) Login(ctx context.Context, email, rawPassword string) LoginResult {
	return RunLogin(ctx, email, rawPassword, s.deps.Login)
}

func (s Service) Refresh(ctx context.Context, secret string) RefreshResult {
	return RunRefresh(ctx, secret, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, subjectID, accessToken string) LogoutResult {
	return RunLogout(ctx, subjectID, accessToken, s.deps.Logout)
}

func (s Service) Authenticate(ctx context.Context, bearer string) AuthenticateResult {
	return RunAuthenticate(ctx, bearer, s.deps.Authenticate)
}
