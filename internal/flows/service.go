package flows

import "context"

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
	return s.deps.Refresh.LookupByRefreshToken != nil
}

func (s Service) Refresh(ctx context.Context, presented string) RefreshResult {
	return RunRefresh(ctx, presented, s.deps.Refresh)
}

func (s Service) Issue(ctx context.Context, username string) IssueResult {
	return RunIssue(ctx, username, s.deps.Issue)
}

func (s Service) ValidateAssertion(ctx context.Context, credentialID []byte, presented uint32) (bool, error) {
	return RunValidateAssertion(ctx, credentialID, presented, s.deps.Assertion)
}

func (s Service) AdvanceAssertion(ctx context.Context, credentialID []byte, presented uint32) AssertionResult {
	return RunAdvanceAssertion(ctx, credentialID, presented, s.deps.Assertion)
}

func (s Service) ResetAssertion(ctx context.Context, credentialID []byte) AssertionResult {
	return RunResetAssertion(ctx, credentialID, s.deps.Assertion)
}
