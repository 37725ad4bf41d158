package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/scribe/internal/app"
	"github.com/okian/scribe/internal/domain/model"
)

type rankedItem struct {
	ID        string  `json:"id"`
	Relevance float64 `json:"relevance"`
	Summary   string  `json:"summary"`
}

func newRankCommand(ctx *commandContext) *cobra.Command {
	var topicFile, host, token string

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank tracked items against one topic",
		Long:  "Reads a topic as JSON ({\"text\",\"topic\",\"keywords\",\"mainConcept\"}) and prints the scored candidates, most relevant first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, topicFile)
			if err != nil {
				return err
			}
			var topic model.Topic
			if err := json.Unmarshal([]byte(raw), &topic); err != nil {
				return fmt.Errorf("decode topic: %w", err)
			}
			return ctx.withService(cmd, func(svc *service.Service) error {
				t, err := svc.Tracker(host, token)
				if err != nil {
					return err
				}
				ranked, err := svc.Matcher(t).Rank(cmd.Context(), topic)
				if err != nil {
					return err
				}
				out := make([]rankedItem, len(ranked))
				for i, sc := range ranked {
					out[i] = rankedItem{ID: sc.ID, Relevance: sc.Relevance, Summary: sc.Source.Summary}
				}
				return writeJSON(cmd, out)
			})
		},
	}

	cmd.Flags().StringVarP(&topicFile, "topic-file", "t", "-", "Topic JSON file (- for stdin)")
	addTrackerFlags(cmd, &host, &token)
	return cmd
}
