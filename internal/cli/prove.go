package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wise/internal/pipeline"
)

var proveOut string

func newProveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prove <file> --out <proof.json>",
		Short: "Create an integrity proof for a file",
		Args:  cobra.ExactArgs(1),
		RunE:  runProve,
	}
	cmd.Flags().StringVar(&proveOut, "out", "", "Where to write the proof document")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runProve(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if _, err := e.pipe.Prove(cmd.Context(), pipeline.SealRequest{FilePath: args[0], ProofOut: proveOut}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "OK: PROOF CREATED")
	return nil
}
