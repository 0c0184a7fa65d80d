package model

// Response keeps the upstream export column names (SubmissionDate, KEY,
// SubmitterName) so the persisted schema matches what the form export
// produces.
type Response struct {
	Key                 string  `gorm:"column:KEY;primaryKey"`
	SubmissionDate      string  `gorm:"column:SubmissionDate;type:text"`
	EntityProblem       *string `gorm:"column:entity_problem;type:text"`
	ActionRole          *string `gorm:"column:action_role;type:text"`
	ActionStatus        *string `gorm:"column:action_status;type:text"`
	ActionActionTaken   *string `gorm:"column:action_action_taken;type:text"`
	ActionImage         []byte  `gorm:"column:action_image;type:blob"`
	ResolutionCostUSD   *string `gorm:"column:action_resolution_costusd;type:text"`
	ResolutionTimeframe *string `gorm:"column:action_resolution_timeframe;type:text"`
	RecommendedContact  *string `gorm:"column:action_recommended_contact;type:text"`
	SubmitterName       *string `gorm:"column:SubmitterName;type:text"`
}

func (Response) TableName() string {
	return "responses"
}
