package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/scribe/internal/adapters/http/api"
	service "github.com/okian/scribe/internal/app"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <record-id>",
		Short: "Print a stored update record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *service.Service) error {
				rec, err := svc.GetRecord(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, api.NewRecordView(rec))
			})
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <meeting-id>",
		Short: "Print the update records of a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *service.Service) error {
				recs, err := svc.ListByMeeting(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				views := make([]api.RecordView, len(recs))
				for i, rec := range recs {
					views[i] = api.NewRecordView(rec)
				}
				return writeJSON(cmd, views)
			})
		},
	}
}
