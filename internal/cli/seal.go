package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wise/internal/pipeline"
)

var (
	sealFile string
	sealOut  string
)

func newSealCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seal --file <file> --out <proof.json>",
		Short: "Seal any file with an integrity proof",
		Args:  cobra.NoArgs,
		RunE:  runSeal,
	}
	cmd.Flags().StringVar(&sealFile, "file", "", "File to seal")
	cmd.Flags().StringVar(&sealOut, "out", "", "Where to write the proof document")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runSeal(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if _, err := e.pipe.Seal(cmd.Context(), pipeline.SealRequest{FilePath: sealFile, ProofOut: sealOut}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "SEALED")
	return nil
}
