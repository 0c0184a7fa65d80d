package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fieldwatch/internal/domain/survey"
	"fieldwatch/internal/errs"
	"fieldwatch/internal/infrastructure/persistence/sqlite/model"
	"fieldwatch/internal/ports"
)

// SurveyRepository implements ports.SurveyStore on SQLite through GORM.
type SurveyRepository struct {
	db *gorm.DB
}

var _ ports.SurveyStore = (*SurveyRepository)(nil)

func NewSurveyRepository(db *gorm.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// UpsertIssue replaces the full row for an already-seen id. Re-observing the
// same upstream entity is the normal case on every cycle.
func (r *SurveyRepository) UpsertIssue(ctx context.Context, issue survey.Issue) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if issue.ID == "" {
		return errors.New("issue id is required")
	}

	row := issueToModel(issue)
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error; err != nil {
		return errs.Wrapf(err, "upsert issue %s", issue.ID)
	}
	return nil
}

// InsertImage is first-write-wins: a row already present for the submission
// id is left untouched and the duplicate is silently ignored.
func (r *SurveyRepository) InsertImage(ctx context.Context, image survey.Image) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if image.SubmissionID == "" {
		return errors.New("image submission id is required")
	}

	row := model.Image{
		SubmissionID: image.SubmissionID,
		Title:        image.Title,
		Label:        image.Label,
		Image:        image.Data,
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return errs.Wrapf(err, "insert image for submission %s", image.SubmissionID)
	}
	return nil
}

func (r *SurveyRepository) UpsertResponse(ctx context.Context, response survey.Response) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if response.Key == "" {
		return errors.New("response key is required")
	}

	row := responseToModel(response)
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "KEY"}},
		UpdateAll: true,
	}).Create(&row).Error; err != nil {
		return errs.Wrapf(err, "upsert response %s", response.Key)
	}
	return nil
}

// issueImageRow carries one issue left-joined to its image blob.
type issueImageRow struct {
	model.Issue `gorm:"embedded"`
	ImageBlob   []byte `gorm:"column:image_blob"`
}

// ListIssues left-joins issues to images on label/title value equality. The
// join is a soft string match by design; upstream does not guarantee label
// uniqueness, so it must not be promoted to a foreign key.
func (r *SurveyRepository) ListIssues(ctx context.Context, filter ports.IssueFilter) ([]ports.IssueWithImage, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	query := r.db.WithContext(ctx).
		Table("issues").
		Select("issues.*, images.image AS image_blob").
		Joins("LEFT JOIN images ON images.title = issues.label")

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(issues.label) LIKE ? OR LOWER(issues.description) LIKE ? OR LOWER(issues.type) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("LOWER(issues.status) = LOWER(?)", status)
	}
	if severity := strings.TrimSpace(filter.Severity); severity != "" {
		query = query.Where("LOWER(issues.severity) = LOWER(?)", severity)
	}
	if timeframe := strings.TrimSpace(filter.Timeframe); timeframe != "" {
		query = query.Where("LOWER(issues.timeframe) = LOWER(?)", timeframe)
	}
	// Date bounds compare the date part only and include both ends.
	if start := strings.TrimSpace(filter.StartDate); start != "" {
		query = query.Where("DATE(issues.created_at) >= DATE(?)", start)
	}
	if end := strings.TrimSpace(filter.EndDate); end != "" {
		query = query.Where("DATE(issues.created_at) <= DATE(?)", end)
	}

	var rows []issueImageRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query issues")
	}

	items := make([]ports.IssueWithImage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.IssueWithImage{
			Issue: issueFromModel(row.Issue),
			Image: row.ImageBlob,
		})
	}
	return items, nil
}

func (r *SurveyRepository) ListResponses(ctx context.Context, issueID string) ([]survey.Response, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	var rows []model.Response
	if err := r.db.WithContext(ctx).
		Where("entity_problem = ?", issueID).
		Order("SubmissionDate DESC").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrapf(err, "query responses for issue %s", issueID)
	}

	items := make([]survey.Response, 0, len(rows))
	for _, row := range rows {
		items = append(items, responseFromModel(row))
	}
	return items, nil
}

func (r *SurveyRepository) ResponseCounts(ctx context.Context) (map[string]int, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	var rows []struct {
		IssueID string `gorm:"column:issue_id"`
		N       int    `gorm:"column:n"`
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Response{}).
		Select("entity_problem AS issue_id, COUNT(*) AS n").
		Where("entity_problem IS NOT NULL").
		Group("entity_problem").
		Scan(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "count responses per issue")
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.IssueID] = row.N
	}
	return counts, nil
}

func (r *SurveyRepository) LatestUpdateTime(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}

	var latest sql.NullString
	if err := r.db.WithContext(ctx).
		Model(&model.Issue{}).
		Select("MAX(updated_at)").
		Scan(&latest).Error; err != nil {
		return "", errs.Wrap(err, "query latest update time")
	}
	if !latest.Valid {
		return "", nil
	}
	return latest.String, nil
}

func issueToModel(issue survey.Issue) model.Issue {
	return model.Issue{
		ID:                 issue.ID,
		Label:              issue.Label,
		Type:               issue.Type,
		Description:        issue.Description,
		Severity:           issue.Severity,
		Status:             issue.Status,
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
	}
}

func issueFromModel(row model.Issue) survey.Issue {
	return survey.Issue{
		ID:                 row.ID,
		Label:              row.Label,
		Type:               row.Type,
		Description:        row.Description,
		Severity:           row.Severity,
		Status:             row.Status,
		Timeframe:          row.Timeframe,
		ActionTaken:        row.ActionTaken,
		CostUSD:            row.CostUSD,
		SavedUSD:           row.SavedUSD,
		RecommendedContact: row.RecommendedContact,
		Latitude:           row.Latitude,
		Longitude:          row.Longitude,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
		CreatorID:          row.CreatorID,
		CreatorName:        row.CreatorName,
		Version:            row.Version,
	}
}

func responseToModel(response survey.Response) model.Response {
	return model.Response{
		Key:                 response.Key,
		SubmissionDate:      response.SubmissionDate,
		EntityProblem:       response.IssueID,
		ActionRole:          response.Role,
		ActionStatus:        response.Status,
		ActionActionTaken:   response.ActionTaken,
		ActionImage:         response.Image,
		ResolutionCostUSD:   response.ResolutionCostUSD,
		ResolutionTimeframe: response.ResolutionTimeframe,
		RecommendedContact:  response.RecommendedContact,
		SubmitterName:       response.SubmitterName,
	}
}

func responseFromModel(row model.Response) survey.Response {
	return survey.Response{
		Key:                 row.Key,
		SubmissionDate:      row.SubmissionDate,
		SubmitterName:       row.SubmitterName,
		IssueID:             row.EntityProblem,
		Role:                row.ActionRole,
		Status:              row.ActionStatus,
		ActionTaken:         row.ActionActionTaken,
		ResolutionCostUSD:   row.ResolutionCostUSD,
		ResolutionTimeframe: row.ResolutionTimeframe,
		RecommendedContact:  row.RecommendedContact,
		Image:               row.ActionImage,
	}
}
