package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wise/internal/pipeline"
	"github.com/ppiankov/wise/internal/watch"
)

var (
	watchProof string
	watchPoll  time.Duration
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file> --proof <proof.json>",
		Short: "Re-verify a sealed file every time it changes",
		Long:  "Verifies once at start, then prints one VERIFIED or TAMPERED line per change.\nRuns until interrupted.",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	cmd.Flags().StringVar(&watchProof, "proof", "", "Proof document to check against")
	cmd.Flags().DurationVar(&watchPoll, "poll", 0, "Poll at this interval instead of using filesystem events (e.g. for NFS)")
	_ = cmd.MarkFlagRequired("proof")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	req := pipeline.VerifyRequest{FilePath: args[0], ProofPath: watchProof}
	out := cmd.OutOrStdout()

	// A missing file or proof at start is an error; later it is reported
	// and watching continues, since the file may be restored.
	if err := checkOnce(ctx, e, req, out); err != nil {
		return err
	}

	onChange := func() {
		if err := checkOnce(ctx, e, req, out); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "ERROR: %v\n", err)
		}
		// Keep the textfile current while the watch runs.
		if err := e.metrics.Flush(); err != nil {
			e.log.Warn("metrics flush failed", "error", err)
		}
	}

	if watchPoll > 0 {
		return watch.NewPollWatcher(args[0], watchPoll, onChange).Run(ctx)
	}
	w, err := watch.NewFileWatcher(args[0], e.cfg.Watch.Debounce, e.log, onChange)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func checkOnce(ctx context.Context, e *env, req pipeline.VerifyRequest, out io.Writer) error {
	res, err := e.pipe.VerifyAs(ctx, "watch", req)
	if err != nil {
		return err
	}
	if res.OK {
		printVerified(out)
		return nil
	}
	printTampered(out, res.Expected, res.Observed)
	return nil
}
