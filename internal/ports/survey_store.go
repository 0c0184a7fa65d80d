package ports

import (
	"context"

	"fieldwatch/internal/domain/survey"
)

// IssueFilter narrows ListIssues. Empty fields are ignored; supplied
// predicates combine with AND. StartDate/EndDate are YYYY-MM-DD strings and
// bound created_at inclusively on the date part only.
type IssueFilter struct {
	Search    string
	Status    string
	Severity  string
	Timeframe string
	StartDate string
	EndDate   string
}

// IssueWithImage is an issue row left-joined to its image by label/title
// match. Image is nil when no image matched.
type IssueWithImage struct {
	Issue survey.Issue
	Image []byte
}

// SurveyStore persists canonical records and serves the read side.
//
// Upsert semantics: issues and responses are full-row replaces by primary
// key; images are insert-only, a duplicate submission id is silently ignored.
// Each upsert is its own single-row write, so a crash mid-batch leaves a
// durable prefix and the rest converges on the next cycle.
type SurveyStore interface {
	UpsertIssue(ctx context.Context, issue survey.Issue) error
	InsertImage(ctx context.Context, image survey.Image) error
	UpsertResponse(ctx context.Context, response survey.Response) error

	ListIssues(ctx context.Context, filter IssueFilter) ([]IssueWithImage, error)
	ListResponses(ctx context.Context, issueID string) ([]survey.Response, error)
	// ResponseCounts returns the number of responses per referenced issue id.
	ResponseCounts(ctx context.Context) (map[string]int, error)
	// LatestUpdateTime returns the maximum updated_at across issues, or
	// "" when the store holds no issues.
	LatestUpdateTime(ctx context.Context) (string, error)
}
