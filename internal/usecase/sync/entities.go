package sync

import (
	"context"

	"fieldwatch/internal/bootstrap/logging"
	"fieldwatch/internal/domain/survey"
	"fieldwatch/internal/infrastructure/central"
)

// normalizeEntities maps raw entities to canonical Issues keyed by id.
// Entities without an id are dropped with a warning; if the same id appears
// twice in one batch the last occurrence wins.
func normalizeEntities(ctx context.Context, entities []central.Entity) map[string]survey.Issue {
	issues := make(map[string]survey.Issue, len(entities))
	for _, entity := range entities {
		if entity.ID == "" {
			logging.Warn(ctx, "entity without id skipped")
			continue
		}
		issues[entity.ID] = normalizeEntity(entity)
	}
	return issues
}

func normalizeEntity(entity central.Entity) survey.Issue {
	issue := survey.Issue{
		ID:                 entity.ID,
		Label:              survey.TextOrDefault(entity.Label, survey.DefaultLabel),
		Type:               survey.TextOrDefault(entity.Type, survey.DefaultType),
		Description:        survey.TextOrDefault(entity.Description, survey.DefaultDescription),
		Severity:           survey.TextOrDefault(entity.Severity, survey.DefaultSeverity),
		Status:             survey.TextOrDefault(entity.Status, survey.DefaultStatus),
		Timeframe:          survey.TextOrDefault(entity.Timeframe, survey.DefaultTimeframe),
		ActionTaken:        survey.TextOrDefault(entity.ActionTaken, survey.DefaultActionTaken),
		CostUSD:            flexOrDefault(entity.CostUSD, survey.DefaultCostUSD),
		SavedUSD:           flexOrDefault(entity.SavedUSD, survey.DefaultSavedUSD),
		RecommendedContact: survey.TextOrDefault(entity.RecommendedContact, survey.DefaultContact),
		CreatedAt:          survey.EpochSentinel,
		UpdatedAt:          survey.EpochSentinel,
		CreatorID:          survey.DefaultCreator,
		CreatorName:        survey.DefaultCreator,
		Version:            survey.DefaultVersion,
	}

	if sys := entity.System; sys != nil {
		issue.CreatedAt = survey.NormalizeTimestamp(sys.CreatedAt)
		issue.UpdatedAt = survey.NormalizeTimestamp(sys.UpdatedAt)
		issue.CreatorID = flexOrDefault(sys.CreatorID, survey.DefaultCreator)
		issue.CreatorName = survey.TextOrDefault(sys.CreatorName, survey.DefaultCreator)
		issue.Version = flexOrDefault(sys.Version, survey.DefaultVersion)
	}

	issue.Latitude, issue.Longitude = survey.ParseGeometry(entity.Geometry)
	return issue
}

func flexOrDefault(value *central.FlexString, def string) string {
	if value == nil || *value == "" {
		return def
	}
	return string(*value)
}

func flexPtr(value *central.FlexString) *string {
	if value == nil {
		return nil
	}
	s := string(*value)
	return &s
}
