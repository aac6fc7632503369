package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/boshu2/omc/internal/formatter"
	"github.com/boshu2/omc/internal/swarm"
)

var (
	swarmAgentCount int
	swarmLeaseMins  int
	swarmAgentID    string
	swarmPatterns   string
	swarmResult     string
	swarmErrMsg     string
)

var swarmCmd = &cobra.Command{
	Use:   "swarm",
	Short: "Manage the multi-agent task pool",
	Long: `Manage the durable, crash-safe multi-agent task pool backed by
.omc/state/swarm.db.

Examples:
  omc swarm start --agents=3 "fix the lint errors" "update the docs"
  omc swarm status
  omc swarm claim --agent=agent-1
  omc swarm complete --agent=agent-1 --result="done" task-1`,
}

func init() {
	swarmCmd.PersistentFlags().StringVar(&swarmAgentID, "agent", "", "agent id")

	swarmStartCmd.Flags().IntVar(&swarmAgentCount, "agents", 1, "expected agent count")
	swarmStartCmd.Flags().IntVar(&swarmLeaseMins, "lease-minutes", int(swarm.DefaultLeaseTimeout.Minutes()), "claim lease timeout in minutes")

	swarmClaimCmd.Flags().StringVar(&swarmPatterns, "files", "", "comma-separated glob patterns to restrict the claim to")

	swarmCompleteCmd.Flags().StringVar(&swarmResult, "result", "", "result text")
	swarmFailCmd.Flags().StringVar(&swarmErrMsg, "error", "", "failure message")

	swarmCmd.AddCommand(swarmStartCmd, swarmStatusCmd, swarmClaimCmd, swarmCompleteCmd,
		swarmFailCmd, swarmReleaseCmd, swarmRetryCmd, swarmCancelCmd)
	rootCmd.AddCommand(swarmCmd)
}

func openCoordinator() (*swarm.Coordinator, error) {
	return swarm.Open()
}

var swarmStartCmd = &cobra.Command{
	Use:   "start <task description>...",
	Short: "Start a swarm with one task per argument",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCoordinator()
		if err != nil {
			return err
		}
		defer c.Close()

		tasks := make([]swarm.TaskInput, 0, len(args))
		for _, desc := range args {
			tasks = append(tasks, swarm.TaskInput{Description: desc})
		}

		cfg := swarm.StartConfig{
			AgentCount:   swarmAgentCount,
			Tasks:        tasks,
			LeaseTimeout: swarm.DefaultLeaseTimeout,
		}
		if swarmLeaseMins > 0 {
			cfg.LeaseTimeout = time.Duration(swarmLeaseMins) * time.Minute
		}
		if err := c.StartSwarm(cfg); err != nil {
			return fmt.Errorf("start swarm: %w", err)
		}
		fmt.Printf("started swarm with %d tasks\n", len(tasks))
		return nil
	},
}

var swarmStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current swarm summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCoordinator()
		if err != nil {
			return err
		}
		defer c.Close()

		summary, err := c.Status()
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}

		if GetOutput() == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}

		for status, count := range summary.TotalsByStatus {
			fmt.Printf("%s: %d\n", status, count)
		}

		if !GetVerbose() {
			return nil
		}
		tasks, err := c.ListTasks()
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		tbl := formatter.NewTable(os.Stdout, "ID", "STATUS", "PRIORITY", "WAVE", "CLAIMED BY")
		for _, t := range tasks {
			claimedBy := ""
			if t.ClaimedBy != nil {
				claimedBy = *t.ClaimedBy
			}
			tbl.AddRow(t.ID, string(t.Status), strconv.Itoa(t.Priority), strconv.Itoa(t.Wave), claimedBy)
		}
		return tbl.Render()
	},
}

var swarmClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim the next available task",
	RunE: func(cmd *cobra.Command, args []string) error {
		if swarmAgentID == "" {
			return fmt.Errorf("--agent is required")
		}
		c, err := openCoordinator()
		if err != nil {
			return err
		}
		defer c.Close()

		var result *swarm.ClaimResult
		if swarmPatterns != "" {
			patterns := strings.Split(swarmPatterns, ",")
			result, err = c.ClaimTaskForFiles(swarmAgentID, patterns)
		} else {
			result, err = c.ClaimTask(swarmAgentID)
		}
		if err != nil {
			return fmt.Errorf("claim: %w", err)
		}
		fmt.Printf("%s: %s\n", result.TaskID, result.Description)
		return nil
	},
}

var swarmCompleteCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Mark a claimed task done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if swarmAgentID == "" {
			return fmt.Errorf("--agent is required")
		}
		c, err := openCoordinator()
		if err != nil {
			return err
		}
		defer c.Close()
		return c.CompleteTask(swarmAgentID, args[0], swarmResult)
	},
}

var swarmFailCmd = &cobra.Command{
	Use:   "fail <task-id>",
	Short: "Mark a claimed task failed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if swarmAgentID == "" {
			return fmt.Errorf("--agent is required")
		}
		c, err := openCoordinator()
		if err != nil {
			return err
		}
		defer c.Close()
		return c.FailTask(swarmAgentID, args[0], swarmErrMsg)
	},
}

var swarmReleaseCmd = &cobra.Command{
	Use:   "release <task-id>",
	Short: "Release a claimed task back to pending",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if swarmAgentID == "" {
			return fmt.Errorf("--agent is required")
		}
		c, err := openCoordinator()
		if err != nil {
			return err
		}
		defer c.Close()
		return c.ReleaseTask(swarmAgentID, args[0])
	},
}

var swarmRetryCmd = &cobra.Command{
	Use:   "retry <task-id>",
	Short: "Re-claim a failed task for the given agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if swarmAgentID == "" {
			return fmt.Errorf("--agent is required")
		}
		c, err := openCoordinator()
		if err != nil {
			return err
		}
		defer c.Close()
		return c.RetryTask(swarmAgentID, args[0])
	},
}

var swarmCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the active swarm session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCoordinator()
		if err != nil {
			return err
		}
		return c.CancelSwarm()
	},
}
