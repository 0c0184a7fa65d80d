package model

type Image struct {
	SubmissionID string  `gorm:"column:submission_id;primaryKey"`
	Title        string  `gorm:"column:title;type:text"`
	Label        *string `gorm:"column:label;type:text"`
	Image        []byte  `gorm:"column:image;type:blob"`
}

func (Image) TableName() string {
	return "images"
}
