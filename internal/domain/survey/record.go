// Package survey holds the canonical records the sync pipeline produces and
// the normalization rules shared between the write and read sides. Upstream
// payloads are loosely typed; every presence/default rule lives here so the
// normalizers apply them uniformly.
package survey

// Default placeholders applied when an upstream entity omits a text field.
const (
	DefaultLabel       = "Untitled Issue"
	DefaultType        = "Unknown"
	DefaultDescription = "No Description"
	DefaultSeverity    = "Not Specified"
	DefaultStatus      = StatusNew
	DefaultTimeframe   = "No Timeframe"
	DefaultActionTaken = "No Action Taken"
	DefaultCostUSD     = "0"
	DefaultSavedUSD    = "N/A"
	DefaultContact     = "No Contact"
	DefaultCreator     = "Unknown"
	DefaultVersion     = "No Version"
	DefaultImageTitle  = "Untitled Image"
)

// Issue status vocabulary. Anything outside it collapses to StatusNew at read
// time.
const (
	StatusNew     = "new"
	StatusOpen    = "open"
	StatusWaiting = "waiting"
	StatusFixed   = "fixed"
)

// Issue is the canonical problem record, keyed by the upstream entity id.
// CostUSD and SavedUSD stay opaque text: upstream supplies numbers, free text
// or "N/A" interchangeably. Latitude and Longitude are both nil or both set.
type Issue struct {
	ID                 string
	Label              string
	Type               string
	Description        string
	Severity           string
	Status             string
	Timeframe          string
	ActionTaken        string
	CostUSD            string
	SavedUSD           string
	RecommendedContact string
	Latitude           *float64
	Longitude          *float64
	CreatedAt          string
	UpdatedAt          string
	CreatorID          string
	CreatorName        string
	Version            string
}

// Image is a photo keyed by the submission that produced it. It relates to an
// Issue only by Title matching Issue.Label, a soft string join; upstream does
// not guarantee label uniqueness, so this is never enforced as a foreign key.
type Image struct {
	SubmissionID string
	Title        string
	Label        *string
	Data         []byte
}

// Response is an action/resolution record attached to an issue. IssueID is a
// soft reference: it may name an issue the store has never seen, which is
// tolerated. Action fields are nil when absent, deliberately looser than the
// Issue placeholder defaults since responses are sparser.
type Response struct {
	Key                 string
	SubmissionDate      string
	SubmitterName       *string
	IssueID             *string
	Role                *string
	Status              *string
	ActionTaken         *string
	ResolutionCostUSD   *string
	ResolutionTimeframe *string
	RecommendedContact  *string
	Image               []byte
}
