// Package wise provides the governance gate and integrity proofs in
// process, for Go programs that produce or consume text. It evaluates
// text for fabrication pressure, risk domains and unsourced FACT lines,
// blocks HALT decisions before a wrapped function runs, and seals files
// with SHA-256 proofs.
//
// Usage:
//
//	w, err := wise.New(wise.WithAuditLog("/var/log/wise.jsonl"))
//	defer w.Close()
//	answer := w.Wrap(askModel, wise.WrapCheckOutput())
//	out, err := answer(ctx, prompt)
//	var halted *wise.HaltedError
//	if errors.As(err, &halted) { ... }
//
// The SDK links directly against internal packages, so it runs without
// spawning the wise binary. External users import
// github.com/ppiankov/wise/sdk/go/wise.
package wise
