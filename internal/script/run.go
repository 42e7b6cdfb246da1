package script

import (
	"context"
	"fmt"

	"github.com/developingchet/execmeter/internal/meter"
)

// Run executes the program. step is called before every statement; a
// non-nil error from step stops the program and is returned wrapped with the
// offending line. Untracked blocks pause the counter bound to ctx.
func (p *Program) Run(ctx context.Context, step func() error) ([]string, error) {
	var out []string
	err := p.exec(ctx, p.body, step, &out)
	return out, err
}

func (p *Program) exec(ctx context.Context, body []stmt, step func() error, out *[]string) error {
	for i := range body {
		s := &body[i]
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(); err != nil {
			return fmt.Errorf("%s:%d: %w", p.Name, s.line, err)
		}

		switch s.op {
		case opSay:
			*out = append(*out, s.text)
		case opNop:
		case opRepeat:
			for j := 0; j < s.n; j++ {
				if err := p.exec(ctx, s.body, step, out); err != nil {
					return err
				}
			}
		case opUntracked:
			restore := meter.FromContext(ctx).Pause()
			err := p.exec(ctx, s.body, step, out)
			restore()
			if err != nil {
				return err
			}
		}
	}
	return nil
}
