package central

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString decodes a JSON field that upstream supplies inconsistently as a
// string, a number, a boolean or null. The value is preserved as opaque text
// rather than parsed.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decode flex string: %w", err)
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	var b bool
	if err := json.Unmarshal(trimmed, &b); err == nil {
		*f = FlexString(strconv.FormatBool(b))
		return nil
	}

	return fmt.Errorf("decode flex string: unsupported value %s", trimmed)
}

// SystemMeta is the OData __system block carried on entities and submissions.
type SystemMeta struct {
	CreatedAt      string      `json:"createdAt"`
	UpdatedAt      string      `json:"updatedAt"`
	SubmissionDate string      `json:"submissionDate"`
	SubmitterName  *string     `json:"submitterName"`
	CreatorID      *FlexString `json:"creatorId"`
	CreatorName    *string     `json:"creatorName"`
	Version        *FlexString `json:"version"`
}

// Entity is one raw issue entity from the problems dataset.
type Entity struct {
	ID                 string      `json:"__id"`
	Label              *string     `json:"label"`
	Type               *string     `json:"type"`
	Description        *string     `json:"description"`
	Severity           *string     `json:"severity"`
	Status             *string     `json:"status"`
	Timeframe          *string     `json:"timeframe"`
	ActionTaken        *string     `json:"action_taken"`
	CostUSD            *FlexString `json:"costusd"`
	SavedUSD           *FlexString `json:"savedusd"`
	RecommendedContact *string     `json:"recommended_contact"`
	Geometry           string      `json:"geometry"`
	System             *SystemMeta `json:"__system"`
}

// ResponseSubmission is one raw submission from the address_problem form.
type ResponseSubmission struct {
	ID     string       `json:"__id"`
	Entity *EntityRef   `json:"entity"`
	Action *ActionGroup `json:"action"`
	System *SystemMeta  `json:"__system"`
}

// EntityRef carries the submission's soft reference to a problem entity.
type EntityRef struct {
	Problem *string `json:"problem"`
}

// ActionGroup is the nested action block of an address_problem submission.
type ActionGroup struct {
	Role                *string     `json:"role"`
	Status              *string     `json:"status"`
	ActionTaken         *string     `json:"action_taken"`
	ResolutionCostUSD   *FlexString `json:"resolution_costusd"`
	ResolutionTimeframe *string     `json:"resolution_timeframe"`
	RecommendedContact  *string     `json:"recommended_contact"`
	Image               *string     `json:"image"`
}

// ReportSubmission is one raw submission from the report_problem form.
type ReportSubmission struct {
	ID      string         `json:"__id"`
	Problem *ReportProblem `json:"problem"`
}

// ReportProblem is the nested problem block of a report_problem submission.
type ReportProblem struct {
	Title *string `json:"problem_title"`
	Image *string `json:"problem_image"`
	Label *string `json:"problem_label"`
}

// envelope is the OData list wrapper every .svc endpoint returns.
type envelope[T any] struct {
	Value []T `json:"value"`
}
