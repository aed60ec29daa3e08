package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ppiankov/wise/internal/model"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	badColor  = color.New(color.FgRed, color.Bold)
)

// printOutcome writes the outcome line callers script against. Color is
// dropped automatically when stdout is not a terminal.
func printOutcome(w io.Writer, o model.Outcome) {
	switch o {
	case model.Allow:
		okColor.Fprintln(w, o)
	case model.Flag:
		warnColor.Fprintln(w, o)
	default:
		badColor.Fprintln(w, o)
	}
}

func printVerified(w io.Writer) {
	okColor.Fprintln(w, "VERIFIED")
}

func printTampered(w io.Writer, expected, observed string) {
	badColor.Fprintln(w, "TAMPERED")
	fmt.Fprintln(w, "expected:", expected)
	fmt.Fprintln(w, "observed:", observed)
}
