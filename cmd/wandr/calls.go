package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/wandr/internal/api"
	"github.com/jackzampolin/wandr/internal/calllog"
)

var (
	callsRunID string
	callsKind  string
	callsModel string
	callsLimit int
)

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Inspect the provider call log",
	Long: `Inspect the provider call log under the wandr home directory.

Every transcription, OCR, analysis, and place lookup the pipeline
makes is recorded with its latency, token usage, and prompt version.`,
}

var callsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded provider calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}

		calls, err := calllog.List(h.CallLogPath(), calllog.QueryFilter{
			RunID: callsRunID,
			Kind:  callsKind,
			Model: callsModel,
			Limit: callsLimit,
		})
		if err != nil {
			return err
		}
		return api.Output(calls)
	},
}

var callsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Aggregate recorded provider calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}

		calls, err := calllog.List(h.CallLogPath(), calllog.QueryFilter{RunID: callsRunID})
		if err != nil {
			return err
		}
		return api.Output(calllog.Summarize(calls))
	},
}

func init() {
	callsListCmd.Flags().StringVar(&callsRunID, "run", "", "Filter by run ID")
	callsListCmd.Flags().StringVar(&callsKind, "kind", "", "Filter by call kind: transcribe, ocr, analyze, enrich")
	callsListCmd.Flags().StringVar(&callsModel, "model", "", "Filter by model")
	callsListCmd.Flags().IntVar(&callsLimit, "limit", 50, "Maximum calls to list")

	callsSummaryCmd.Flags().StringVar(&callsRunID, "run", "", "Filter by run ID")

	callsCmd.AddCommand(callsListCmd)
	callsCmd.AddCommand(callsSummaryCmd)
	rootCmd.AddCommand(callsCmd)
}
