package flows

import (
	"context"

	"github.com/MrEthical07/credvault/lifecycle"
)

// LogoutResult reports both logout steps. Err covers refresh revocation only; a
// blocklist failure rides in Outcome.BlocklistErr.
type LogoutResult struct {
	Outcome lifecycle.LogoutResult
	Err     error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Logout func(ctx context.Context, subjectID, accessToken string) (lifecycle.LogoutResult, error)
}

// RunLogout revokes the subject's refresh chain and blocklists the presented envelope.
func RunLogout(ctx context.Context, subjectID, accessToken string, deps LogoutDeps) LogoutResult {
	outcome, err := deps.Logout(ctx, subjectID, accessToken)
	return LogoutResult{Outcome: outcome, Err: err}
}
