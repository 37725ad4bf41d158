package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/scribe/internal/app"
)

type reportOutput struct {
	MeetingID string   `json:"meetingId"`
	Topics    int      `json:"topics"`
	Matched   int      `json:"matched"`
	Commented int      `json:"commented"`
	Persisted int      `json:"persisted"`
	RecordIDs []string `json:"recordIds"`
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var meetingID, file, host, token string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run a transcript through segmentation, matching and update",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(meetingID) == "" {
				return errors.New("--meeting is required")
			}
			transcript, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			return ctx.withService(cmd, func(svc *service.Service) error {
				p, err := svc.Pipeline(host, token)
				if err != nil {
					return err
				}
				report, err := p.ProcessTranscript(cmd.Context(), meetingID, transcript)
				if err != nil {
					return err
				}
				ids := report.RecordIDs
				if ids == nil {
					ids = []string{}
				}
				return writeJSON(cmd, reportOutput{
					MeetingID: report.MeetingID,
					Topics:    report.Topics,
					Matched:   report.Matched,
					Commented: report.Commented,
					Persisted: report.Persisted,
					RecordIDs: ids,
				})
			})
		},
	}

	cmd.Flags().StringVar(&meetingID, "meeting", "", "Meeting identifier")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Transcript file (- for stdin)")
	addTrackerFlags(cmd, &host, &token)
	return cmd
}

func addTrackerFlags(cmd *cobra.Command, host, token *string) {
	cmd.Flags().StringVar(host, "host", "", "Tracker host, e.g. acme.atlassian.net")
	cmd.Flags().StringVar(token, "token", "", "Tracker bearer token (defaults to tracker_token)")
}

// readInput reads path, or the command's stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var b []byte
	var err error
	if path == "-" || path == "" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
