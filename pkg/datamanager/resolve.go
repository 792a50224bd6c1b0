package datamanager

import (
	"context"

	"github.com/orneryd/edgescript/pkg/storage"
)

// resolveEndpoints implements the path resolver of spec §4.4: the root is
// a single endpoint; each step maps every current endpoint through
// getTargetV (for "->") or getSourceV (for "<-") and concatenates the
// results, preserving order. An empty root short-circuits to the empty
// list regardless of steps.
func (dm *DM) resolveEndpoints(ctx context.Context, p storage.Path) ([]string, error) {
	if p.Root == "" {
		return []string{}, nil
	}
	endpoints := []string{p.Root}
	for _, step := range p.Steps {
		next := make([]string, 0, len(endpoints))
		for _, e := range endpoints {
			var vals []string
			var err error
			if step.Arrow == storage.Forward {
				vals, err = dm.getTargetV(ctx, e, step.Code)
			} else {
				vals, err = dm.getSourceV(ctx, step.Code, e)
			}
			if err != nil {
				return nil, err
			}
			next = append(next, vals...)
		}
		endpoints = next
	}
	return endpoints, nil
}

// Get resolves pathStr to its ordered list of endpoints against committed
// and buffered state (spec §4.3's get contract, §4.4's resolver).
func (dm *DM) Get(ctx context.Context, pathStr string) ([]string, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.metrics.getTotal.WithLabelValues(authLabel(dm.auth)).Inc()
	return dm.resolveEndpoints(ctx, storage.ParsePath(pathStr))
}

// Append resolves pathStr's prefix (every step but the last) to a list of
// endpoints and, for each endpoint, inserts (endpoint, lastStep.code, item)
// for every item, honouring the last step's arrow direction (spec §4.3).
// A path with no steps, or whose prefix resolves to no endpoints, is a
// no-op.
func (dm *DM) Append(ctx context.Context, pathStr string, items []string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.metrics.appendTotal.WithLabelValues(authLabel(dm.auth)).Inc()

	p := storage.ParsePath(pathStr)
	if len(p.Steps) == 0 {
		return nil
	}
	last := p.Steps[len(p.Steps)-1]
	prefix := storage.Path{Root: p.Root, Steps: p.Steps[:len(p.Steps)-1]}

	endpoints, err := dm.resolveEndpoints(ctx, prefix)
	if err != nil {
		return err
	}
	for _, e := range endpoints {
		if last.Arrow == storage.Forward {
			if err := dm.appendTargetV(ctx, e, last.Code, items); err != nil {
				return err
			}
		} else {
			if err := dm.appendSourceV(ctx, last.Code, e, items); err != nil {
				return err
			}
		}
	}
	return nil
}

// Set is Append preceded by a fibre-level clear of every endpoint's last
// fibre (spec §4.3).
func (dm *DM) Set(ctx context.Context, pathStr string, items []string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.metrics.setTotal.WithLabelValues(authLabel(dm.auth)).Inc()

	p := storage.ParsePath(pathStr)
	if len(p.Steps) == 0 {
		return nil
	}
	last := p.Steps[len(p.Steps)-1]
	prefix := storage.Path{Root: p.Root, Steps: p.Steps[:len(p.Steps)-1]}

	endpoints, err := dm.resolveEndpoints(ctx, prefix)
	if err != nil {
		return err
	}
	for _, e := range endpoints {
		if last.Arrow == storage.Forward {
			if err := dm.setTargetV(e, last.Code, items); err != nil {
				return err
			}
		} else {
			if err := dm.setSourceV(last.Code, e, items); err != nil {
				return err
			}
		}
	}
	return nil
}
