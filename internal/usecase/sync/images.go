package sync

import (
	"context"
	"log/slog"

	"fieldwatch/internal/bootstrap/logging"
	"fieldwatch/internal/domain/survey"
	"fieldwatch/internal/errs"
	"fieldwatch/internal/infrastructure/central"
)

// resolveImages maps report_problem submissions to candidate Images keyed by
// submission id. Only submissions naming an image filename produce a record;
// a failed download skips that one submission, not the batch.
func (s *Service) resolveImages(ctx context.Context, subs []central.ReportSubmission) map[string]survey.Image {
	images := make(map[string]survey.Image, len(subs))

	for _, sub := range subs {
		if sub.ID == "" {
			logging.Warn(ctx, "report submission without id skipped")
			continue
		}

		problem := sub.Problem
		if problem == nil || problem.Image == nil || *problem.Image == "" {
			logging.Warn(ctx, "report submission names no image", slog.String("submission_id", sub.ID))
			continue
		}

		data, err := s.source.Attachment(ctx, central.FormReportProblem, sub.ID, *problem.Image)
		if err != nil {
			logging.Warn(
				ctx,
				"image download failed, submission skipped",
				slog.String("submission_id", sub.ID),
				slog.String("filename", *problem.Image),
				slog.Any("err", errs.Loggable(err)),
			)
			continue
		}

		images[sub.ID] = survey.Image{
			SubmissionID: sub.ID,
			Title:        survey.TextOrDefault(problem.Title, survey.DefaultImageTitle),
			Label:        problem.Label,
			Data:         data,
		}
	}

	return images
}
