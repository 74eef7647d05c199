package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BatchOperation is a lifecycle operation applied to many services.
type BatchOperation string

const (
	BatchStart   BatchOperation = "start"
	BatchStop    BatchOperation = "stop"
	BatchRestart BatchOperation = "restart"
	BatchRemove  BatchOperation = "remove"
	BatchEnable  BatchOperation = "enable"
	BatchDisable BatchOperation = "disable"
)

// BatchResult holds one report or error per service, in input order.
type BatchResult struct {
	Operation BatchOperation
	Services  []string
	Reports   []*Report
	Errors    []error
}

// Succeeded returns how many services completed the operation.
func (b *BatchResult) Succeeded() int {
	n := 0
	for i := range b.Services {
		if b.Errors[i] == nil && b.Reports[i] != nil && b.Reports[i].Success() {
			n++
		}
	}
	return n
}

// Err joins the failures of every service, or returns nil.
func (b *BatchResult) Err() error {
	var errs []error
	for i, id := range b.Services {
		switch {
		case b.Errors[i] != nil:
			errs = append(errs, fmt.Errorf("%s: %w", id, b.Errors[i]))
		case b.Reports[i] != nil && !b.Reports[i].Success():
			errs = append(errs, fmt.Errorf("%s: %w", id, b.Reports[i].Result.Err))
		}
	}
	return errors.Join(errs...)
}

// Summary returns a one-line count, e.g. "3 of 4 services: start succeeded".
func (b *BatchResult) Summary() string {
	return fmt.Sprintf("%d of %d services: %s succeeded", b.Succeeded(), len(b.Services), b.Operation)
}

// Batch applies op to every service. With parallel set, up to
// max_parallel services are processed at once; otherwise they run in
// order. A failure on one service does not stop the others.
func (r *Reconciler) Batch(ctx context.Context, op BatchOperation, ids []string, parallel bool) (*BatchResult, error) {
	fn, err := r.batchFunc(op)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		Operation: op,
		Services:  ids,
		Reports:   make([]*Report, len(ids)),
		Errors:    make([]error, len(ids)),
	}

	limit := 1
	if parallel && r.config.MaxParallel > 1 {
		limit = r.config.MaxParallel
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				result.Errors[i] = err
				return nil
			}
			result.Reports[i], result.Errors[i] = fn(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	r.logger.Info("batch completed",
		"operation", op,
		"services", len(ids),
		"succeeded", result.Succeeded(),
		"parallel", limit > 1,
	)

	return result, nil
}

func (r *Reconciler) batchFunc(op BatchOperation) (func(context.Context, string) (*Report, error), error) {
	switch op {
	case BatchStart:
		return r.Start, nil
	case BatchStop:
		return r.Stop, nil
	case BatchRestart:
		return r.Restart, nil
	case BatchRemove:
		return r.Remove, nil
	case BatchEnable:
		return r.Enable, nil
	case BatchDisable:
		return r.Disable, nil
	default:
		return nil, fmt.Errorf("unknown batch operation %q", op)
	}
}
