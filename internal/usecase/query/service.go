// Package query builds the filtered, joined read views served to consumers.
// It only ever reads the store; an in-flight sync cycle is never blocked by a
// reader and readers may see a partially updated store.
package query

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"fieldwatch/internal/domain/survey"
	"fieldwatch/internal/errs"
	"fieldwatch/internal/ports"
)

type Service struct {
	store ports.SurveyStore
}

func NewService(store ports.SurveyStore) *Service {
	return &Service{store: store}
}

// ListIssuesInput mirrors the web layer's filter parameters. Empty fields are
// ignored; supplied ones combine with AND.
type ListIssuesInput struct {
	Search    string
	Status    string
	Severity  string
	Timeframe string
	StartDate string
	EndDate   string
}

// IssueView is one enriched issue as served to consumers. Image is the
// base64-encoded photo joined by label/title match, or null when no image
// matched; never an empty string.
type IssueView struct {
	ID                 string   `json:"id"`
	Label              string   `json:"label"`
	Type               string   `json:"type"`
	Description        string   `json:"description"`
	Severity           string   `json:"severity"`
	Status             string   `json:"status"`
	Timeframe          string   `json:"timeframe"`
	ActionTaken        string   `json:"action_taken"`
	CostUSD            string   `json:"costusd"`
	SavedUSD           string   `json:"savedusd"`
	RecommendedContact string   `json:"recommended_contact"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
	CreatorID          string   `json:"creator_id"`
	CreatorName        string   `json:"creator_name"`
	Version            string   `json:"version"`
	Image              *string  `json:"image"`
}

// ResponseView keeps the upstream export field names the consumers already
// depend on.
type ResponseView struct {
	Key                 string  `json:"KEY"`
	SubmissionDate      string  `json:"SubmissionDate"`
	EntityProblem       *string `json:"entity_problem"`
	ActionRole          *string `json:"action_role"`
	ActionStatus        *string `json:"action_status"`
	ActionActionTaken   *string `json:"action_action_taken"`
	ActionImage         *string `json:"action_image"`
	ResolutionCostUSD   *string `json:"action_resolution_costusd"`
	ResolutionTimeframe *string `json:"action_resolution_timeframe"`
	RecommendedContact  *string `json:"action_recommended_contact"`
	SubmitterName       *string `json:"SubmitterName"`
}

// ListIssues serves the filtered, image-joined issue view. Each issue's
// status is recomputed at read time: an issue with zero responses always
// reports "new" regardless of its stored status; otherwise the stored value
// collapses through the fixed vocabulary.
func (s *Service) ListIssues(ctx context.Context, input ListIssuesInput) ([]IssueView, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	items, err := s.store.ListIssues(ctx, ports.IssueFilter{
		Search:    input.Search,
		Status:    input.Status,
		Severity:  input.Severity,
		Timeframe: input.Timeframe,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	})
	if err != nil {
		return nil, errs.Wrap(err, "list issues")
	}

	counts, err := s.store.ResponseCounts(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "count responses")
	}

	views := make([]IssueView, 0, len(items))
	for _, item := range items {
		views = append(views, issueView(item, counts[item.Issue.ID]))
	}
	return views, nil
}

// ListResponses serves all responses referencing the issue id, most recent
// submission first. The reference is soft: an unknown id yields whatever
// responses cite it, possibly none.
func (s *Service) ListResponses(ctx context.Context, issueID string) ([]ResponseView, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	responses, err := s.store.ListResponses(ctx, issueID)
	if err != nil {
		return nil, errs.Wrapf(err, "list responses for issue %s", issueID)
	}

	views := make([]ResponseView, 0, len(responses))
	for _, response := range responses {
		views = append(views, responseView(response))
	}
	return views, nil
}

// LatestUpdateTime reports the newest issue update the store has seen, or
// ok=false when the store is empty.
func (s *Service) LatestUpdateTime(ctx context.Context) (time.Time, bool, error) {
	if ctx == nil {
		return time.Time{}, false, errors.New("context is required")
	}

	latest, err := s.store.LatestUpdateTime(ctx)
	if err != nil {
		return time.Time{}, false, errs.Wrap(err, "query latest update time")
	}
	if latest == "" {
		return time.Time{}, false, nil
	}

	ts, err := time.Parse(survey.TimestampLayout, latest)
	if err != nil {
		return time.Time{}, false, errs.Wrapf(err, "parse latest update time %q", latest)
	}
	return ts, true, nil
}

func issueView(item ports.IssueWithImage, responseCount int) IssueView {
	issue := item.Issue

	status := survey.StatusNew
	if responseCount > 0 {
		status = survey.CanonicalStatus(issue.Status)
	}

	return IssueView{
		ID:                 issue.ID,
		Label:              issue.Label,
		Type:               issue.Type,
		Description:        issue.Description,
		Severity:           issue.Severity,
		Status:             status,
		Timeframe:          issue.Timeframe,
		ActionTaken:        issue.ActionTaken,
		CostUSD:            issue.CostUSD,
		SavedUSD:           issue.SavedUSD,
		RecommendedContact: issue.RecommendedContact,
		Latitude:           issue.Latitude,
		Longitude:          issue.Longitude,
		CreatedAt:          issue.CreatedAt,
		UpdatedAt:          issue.UpdatedAt,
		CreatorID:          issue.CreatorID,
		CreatorName:        issue.CreatorName,
		Version:            issue.Version,
		Image:              encodeImage(item.Image),
	}
}

func responseView(response survey.Response) ResponseView {
	return ResponseView{
		Key:                 response.Key,
		SubmissionDate:      response.SubmissionDate,
		EntityProblem:       response.IssueID,
		ActionRole:          response.Role,
		ActionStatus:        response.Status,
		ActionActionTaken:   response.ActionTaken,
		ActionImage:         encodeImage(response.Image),
		ResolutionCostUSD:   response.ResolutionCostUSD,
		ResolutionTimeframe: response.ResolutionTimeframe,
		RecommendedContact:  response.RecommendedContact,
		SubmitterName:       response.SubmitterName,
	}
}

func encodeImage(data []byte) *string {
	if len(data) == 0 {
		return nil
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return &encoded
}
