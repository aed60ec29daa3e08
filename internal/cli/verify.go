package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/wise/internal/model"
	"github.com/ppiankov/wise/internal/pipeline"
)

var verifyProof string

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <file> --proof <proof.json>",
		Short: "Verify a file against its proof",
		Long:  "Re-hashes the file and compares it with the proof's sha256.\nExit codes: VERIFIED 0, TAMPERED 2, missing file or proof 1.",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerify,
	}
	cmd.Flags().StringVar(&verifyProof, "proof", "", "Proof document to check against")
	_ = cmd.MarkFlagRequired("proof")
	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	res, err := e.pipe.Verify(cmd.Context(), pipeline.VerifyRequest{FilePath: args[0], ProofPath: verifyProof})
	if err != nil {
		return err
	}

	if res.OK {
		printVerified(cmd.OutOrStdout())
		return nil
	}
	printTampered(cmd.OutOrStdout(), res.Expected, res.Observed)
	return &ExitError{Code: model.ExitTampered}
}
