package flows

// Deps aggregates all flow dependency sets wired by the root engine.
type Deps struct {
	Refresh   RefreshDeps
	Issue     IssueDeps
	Assertion AssertionDeps
}
