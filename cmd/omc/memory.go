package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/omc/internal/memory"
	"github.com/boshu2/omc/internal/worktree"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and refresh project memory",
	Long: `Inspect the persisted project memory (.omc/project-memory.json):
detected tech stack, build/test/lint commands, conventions, hot paths,
custom notes, and user directives.

Examples:
  omc memory show
  omc memory rescan`,
}

func init() {
	memoryCmd.AddCommand(memoryShowCmd, memoryRescanCmd)
	rootCmd.AddCommand(memoryCmd)
}

var memoryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current project memory summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := worktree.ProcessRoot()
		if err != nil {
			return fmt.Errorf("resolve worktree root: %w", err)
		}
		p, err := memory.Load(root)
		if err != nil {
			return fmt.Errorf("load project memory: %w", err)
		}

		if GetOutput() == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		}

		fmt.Println(p.Summary())
		return nil
	},
}

var memoryRescanCmd = &cobra.Command{
	Use:   "rescan",
	Short: "Re-detect tech stack and commands and persist the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := worktree.ProcessRoot()
		if err != nil {
			return fmt.Errorf("resolve worktree root: %w", err)
		}
		p, err := memory.Load(root)
		if err != nil {
			return fmt.Errorf("load project memory: %w", err)
		}
		p.TechStack = memory.DetectTechStack(root)
		p.Commands = memory.DetectCommands(root)
		if err := memory.Save(p); err != nil {
			return fmt.Errorf("save project memory: %w", err)
		}
		fmt.Println(p.Summary())
		return nil
	},
}
