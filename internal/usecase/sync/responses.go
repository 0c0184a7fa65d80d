package sync

import (
	"context"
	"log/slog"

	"fieldwatch/internal/bootstrap/logging"
	"fieldwatch/internal/domain/survey"
	"fieldwatch/internal/errs"
	"fieldwatch/internal/infrastructure/central"
)

// normalizeResponse maps one raw address_problem submission to a canonical
// Response. Action fields stay nil when absent. When the action names an
// image the attachment is downloaded through the source; a failed download is
// logged and the response is still emitted with a nil image, so one bad
// attachment never drops the whole record.
func (s *Service) normalizeResponse(ctx context.Context, sub central.ResponseSubmission) survey.Response {
	response := survey.Response{
		Key:            sub.ID,
		SubmissionDate: survey.EpochSentinel,
	}

	if sys := sub.System; sys != nil {
		response.SubmissionDate = survey.NormalizeTimestamp(sys.SubmissionDate)
		response.SubmitterName = sys.SubmitterName
	}
	if sub.Entity != nil {
		response.IssueID = sub.Entity.Problem
	}

	action := sub.Action
	if action == nil {
		return response
	}

	response.Role = action.Role
	response.Status = action.Status
	response.ActionTaken = action.ActionTaken
	response.ResolutionCostUSD = flexPtr(action.ResolutionCostUSD)
	response.ResolutionTimeframe = action.ResolutionTimeframe
	response.RecommendedContact = action.RecommendedContact

	if action.Image != nil && *action.Image != "" {
		data, err := s.source.Attachment(ctx, central.FormAddressProblem, sub.ID, *action.Image)
		if err != nil {
			logging.Warn(
				ctx,
				"action image download failed, keeping response without image",
				slog.String("submission_id", sub.ID),
				slog.String("filename", *action.Image),
				slog.Any("err", errs.Loggable(err)),
			)
		} else {
			response.Image = data
		}
	}

	return response
}
