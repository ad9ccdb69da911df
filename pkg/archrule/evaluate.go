package archrule

import (
	"context"

	"golang.org/x/sync/errgroup"

	"hexarch/pkg/depgraph"
)

// Evaluate validates rules against g and combines their results in the order
// the rules are given. Every rule is verified first, so a malformed
// declaration fails before any package is scanned.
//
// With workers > 1 the rules run on a bounded pool; each result lands in its
// own slot and the merge follows rule order, so the output does not depend on
// scheduling.
func Evaluate(ctx context.Context, g *depgraph.Graph, rules []Rule, workers int) (Result, error) {
	if err := verifyAll(rules); err != nil {
		return Result{}, err
	}

	if workers <= 1 || len(rules) < 2 {
		acc := Success()
		for _, rule := range rules {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			res, err := rule.Validate(ctx, g)
			if err != nil {
				return Result{}, err
			}
			acc = acc.Combine(res)
		}
		return acc, nil
	}

	results := make([]Result, len(rules))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, rule := range rules {
		eg.Go(func() error {
			res, err := rule.Validate(egCtx, g)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}
	return CombineAll(results...), nil
}
