package model

// Process exit statuses. Callers script against these literal values.
const (
	ExitAllow    = 0
	ExitError    = 1
	ExitTampered = 2
	ExitFlag     = 3
	ExitHalt     = 4
	ExitVerified = 0
)

// ExitCode maps a decision outcome to its process exit status.
// Unknown outcomes are treated as errors.
func ExitCode(o Outcome) int {
	switch o {
	case Allow:
		return ExitAllow
	case Flag:
		return ExitFlag
	case Halt:
		return ExitHalt
	default:
		return ExitError
	}
}
