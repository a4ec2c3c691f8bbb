package flows

import "context"

// IssueFailureKind classifies initial-issuance failures.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureUnknownUser
	IssueFailureIssue
	IssueFailureStore
	IssueFailureEvent
)

// IssueResult carries the issued pair or failure metadata.
type IssueResult struct {
	Failure  IssueFailureKind
	Err      error
	Username string
	Pair     Pair
}

// IssueDeps captures initial-issuance dependencies.
type IssueDeps struct {
	// LookupByName resolves a user by username; (nil, nil) when absent.
	LookupByName func(ctx context.Context, username string) (*UserRecord, error)
	NewPair      func(ctx context.Context, username string) (Pair, error)
	// Persist overwrites the user's active refresh value with the new one.
	Persist func(ctx context.Context, username string, pair Pair) error
	// AppendEvent records the issuance with the login reason.
	AppendEvent func(ctx context.Context, username string) error
}

// RunIssue creates a pair for a resolved user and persists the refresh
// value as the user's single active refresh credential.
func RunIssue(ctx context.Context, username string, deps IssueDeps) IssueResult {
	user, err := deps.LookupByName(ctx, username)
	if err != nil {
		return IssueResult{Failure: IssueFailureStore, Err: err}
	}
	if user == nil {
		return IssueResult{Failure: IssueFailureUnknownUser}
	}

	pair, err := deps.NewPair(ctx, user.Username)
	if err != nil {
		return IssueResult{Failure: IssueFailureIssue, Err: err, Username: user.Username}
	}

	if err := deps.Persist(ctx, user.Username, pair); err != nil {
		return IssueResult{Failure: IssueFailureStore, Err: err, Username: user.Username}
	}

	if err := deps.AppendEvent(ctx, user.Username); err != nil {
		return IssueResult{Failure: IssueFailureEvent, Err: err, Username: user.Username, Pair: pair}
	}

	return IssueResult{Failure: IssueFailureNone, Username: user.Username, Pair: pair}
}
