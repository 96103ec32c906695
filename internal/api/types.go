package api

// VerificationState tracks where a solution sits in the community review pipeline.
type VerificationState string

const (
	StatePending  VerificationState = "PENDING"
	StateVerified VerificationState = "VERIFIED"
	StateRejected VerificationState = "REJECTED"
)

// Solution is a backend-stored problem/answer record.
type Solution struct {
	ID                string            `json:"id"`
	AuthorID          string            `json:"author_id"`
	QueryTitle        string            `json:"query_title"`
	SolutionBody      string            `json:"solution_body"`
	PriceCurrent      int               `json:"price_current"`
	VerificationState VerificationState `json:"verification_state"`
	AccessCount       int               `json:"access_count"`
	Upvotes           int               `json:"upvotes"`
	Downvotes         int               `json:"downvotes"`
}

// FindSolutionResult is a single search hit as presented to callers.
// The backend identifies hits by "id"; callers see "solution_id".
type FindSolutionResult struct {
	SolutionID                string `json:"solution_id"`
	QueryTitle                string `json:"query_title"`
	SolutionBody              string `json:"solution_body,omitempty"`
	HumanVerificationRequired bool   `json:"human_verification_required"`
}

// searchHit is the backend wire shape for a search result.
type searchHit struct {
	ID                        string `json:"id"`
	QueryTitle                string `json:"query_title"`
	SolutionBody              string `json:"solution_body,omitempty"`
	HumanVerificationRequired bool   `json:"human_verification_required"`
}

// Balance is the caller's token balance and transaction summary.
type Balance struct {
	Available      int `json:"available"`
	PendingDebits  int `json:"pending_debits"`
	PendingCredits int `json:"pending_credits"`
	TotalEarned    int `json:"total_earned"`
	TotalSpent     int `json:"total_spent"`
}
