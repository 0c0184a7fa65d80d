package model

type Issue struct {
	ID                 string   `gorm:"column:id;primaryKey"`
	Label              string   `gorm:"column:label;type:text"`
	Type               string   `gorm:"column:type;type:text"`
	Description        string   `gorm:"column:description;type:text"`
	Severity           string   `gorm:"column:severity;type:text"`
	Status             string   `gorm:"column:status;type:text"`
	Timeframe          string   `gorm:"column:timeframe;type:text"`
	ActionTaken        string   `gorm:"column:action_taken;type:text"`
	CostUSD            string   `gorm:"column:costusd;type:text"`
	SavedUSD           string   `gorm:"column:savedusd;type:text"`
	RecommendedContact string   `gorm:"column:recommended_contact;type:text"`
	Latitude           *float64 `gorm:"column:latitude"`
	Longitude          *float64 `gorm:"column:longitude"`
	CreatedAt          string   `gorm:"column:created_at;type:text"`
	UpdatedAt          string   `gorm:"column:updated_at;type:text"`
	CreatorID          string   `gorm:"column:creator_id;type:text"`
	CreatorName        string   `gorm:"column:creator_name;type:text"`
	Version            string   `gorm:"column:version;type:text"`
}

func (Issue) TableName() string {
	return "issues"
}
