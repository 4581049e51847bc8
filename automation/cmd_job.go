package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Follow background generation jobs",
}

var jobStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the state of a queued generation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClientFromFlags()
		if err != nil {
			return err
		}
		job, err := client.GetJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderJob(cmd.OutOrStdout(), job, gf.markdown)
		return nil
	},
}

var jobQueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show how many generations are waiting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClientFromFlags()
		if err != nil {
			return err
		}
		n, err := client.QueueSize(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d pending jobs\n", n)
		return nil
	},
}

func init() {
	jobCmd.AddCommand(jobStatusCmd)
	jobCmd.AddCommand(jobQueueCmd)
}
