package wise

import "context"

// TextFunc is the function signature that Wrap guards: text in, text out.
type TextFunc func(ctx context.Context, input string) (string, error)

// Wrap returns a TextFunc that gates input before calling fn.
// HALT returns a *HaltedError without calling fn. FLAG and ALLOW call fn.
func (c *Client) Wrap(fn TextFunc, opts ...WrapOption) TextFunc {
	wcfg := wrapConfig{source: c.cfg.source}
	for _, o := range opts {
		o(&wcfg)
	}

	return func(ctx context.Context, input string) (string, error) {
		in := toDecision(c.pipe.EvaluateText(ctx, wcfg.source+":input", input))
		if in.Outcome == Halt {
			return "", &HaltedError{Stage: "input", Decision: in}
		}

		output, err := fn(ctx, input)
		if err != nil || !wcfg.checkOutput {
			return output, err
		}

		out := toDecision(c.pipe.EvaluateText(ctx, wcfg.source+":output", output))
		if out.Outcome == Halt {
			return "", &HaltedError{Stage: "output", Decision: out}
		}
		return output, nil
	}
}
