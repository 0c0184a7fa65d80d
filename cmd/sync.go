package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"fieldwatch/internal/bootstrap"
	"fieldwatch/internal/bootstrap/logging"
	"fieldwatch/internal/errs"
	"fieldwatch/internal/usecase/query"
	syncusecase "fieldwatch/internal/usecase/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle against ODK Central and exit",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, syncSvc *syncusecase.Service, _ *query.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		result, err := syncSvc.Run(ctx)
		if err != nil {
			return errs.Wrap(err, "run sync cycle")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"sync completed issues=%d images=%d responses=%d\n",
			result.Issues, result.Images, result.Responses,
		); err != nil {
			return errs.Wrap(err, "write sync output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
