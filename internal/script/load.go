package script

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const loadParallelism = 8

// LoadAll parses every path concurrently. Programs come back in the order of
// paths; the first failure cancels the rest and is returned.
func LoadAll(ctx context.Context, paths []string) ([]*Program, error) {
	progs := make([]*Program, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadParallelism)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := Load(path)
			if err != nil {
				return err
			}
			progs[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return progs, nil
}
