package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/omc/internal/compaction"
	"github.com/boshu2/omc/internal/config"
	"github.com/boshu2/omc/internal/hooks"
	"github.com/boshu2/omc/internal/recovery"
)

// hookDispatcher is package-level so a single compaction engine and
// recovery ledger persist across invocations within one process, mirroring
// the teacher's Coordinator-as-long-lived-object convention (spec.md §9
// "Global mutable state" note) rather than fresh state per hook call.
var hookDispatcher = hooks.NewDispatcher(compaction.NewEngine(resolveCompactionConfig()), recovery.NewLedger())

func resolveCompactionConfig() compaction.Config {
	cfg, err := config.Load()
	if err != nil {
		return compaction.DefaultConfig
	}
	return cfg.CompactionEngineConfig()
}

var hookCmd = &cobra.Command{
	Use:   "hook <type>",
	Short: "Process a single hook invocation from stdin",
	Long: `Reads a JSON hook payload from stdin, dispatches it to the matching
handler, and writes the JSON response to stdout.

This command always exits 0: hook failures are logged to the debug log,
never surfaced as a process exit code, per spec.md §6's "Exit codes" rule
("the host must never see a hook crash its own turn").

Examples:
  echo '{"sessionId":"s1","toolName":"Edit"}' | omc hook pre-tool-use
  omc hook session-end < payload.json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runHook(args[0], os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(hookCmd)
}

func runHook(hookType string, in io.Reader, out io.Writer) {
	raw := map[string]any{}
	data, err := io.ReadAll(in)
	if err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, &raw)
	}

	resp := hookDispatcher.Process(hookType, raw)

	encoded, err := json.Marshal(resp)
	if err != nil {
		fmt.Fprintln(out, `{"continue":true}`)
		return
	}
	fmt.Fprintln(out, string(encoded))
}
