package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wise/internal/audit"
	"github.com/ppiankov/wise/internal/model"
)

var tailLines int

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit log operations",
		Long:  "Commands for verifying and inspecting the hash-chained audit log.",
	}

	verifyCmd := &cobra.Command{
		Use:   "verify <path>",
		Short: "Verify hash chain integrity of an audit log",
		Long:  "Walks the JSONL audit log and validates that every entry's prev_hash\nmatches the SHA-256 of the previous entry and that every entry is a well-formed\nwise record. Prints per-result counts. Exits 0 if valid, 1 if tampered.",
		Args:  cobra.ExactArgs(1),
		RunE:  runAuditVerify,
	}

	tailCmd := &cobra.Command{
		Use:   "tail <path>",
		Short: "Show recent audit log entries",
		Long:  "Reads the last N entries from the JSONL audit log and prints them as a table.",
		Args:  cobra.ExactArgs(1),
		RunE:  runAuditTail,
	}
	tailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of recent entries to show")

	cmd.AddCommand(verifyCmd, tailCmd)
	return cmd
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	result := audit.Verify(args[0])
	if result.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d entries verified\n", result.Lines)
		if result.Head != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "head: %s\n", result.Head)
		}
		if len(result.Results) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "results: %s\n", formatCounts(result.Results))
		}
		if result.ConfigChanges > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "config changes: %d\n", result.ConfigChanges)
		}
		return nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	return &ExitError{Code: model.ExitError}
}

// formatCounts renders counts as "K=V" pairs in key order.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	entries, err := audit.Tail(args[0], tailLines)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), audit.FormatEntries(entries))
	return nil
}
