package script

import (
	"context"

	"github.com/google/uuid"

	"github.com/orneryd/edgescript/pkg/datamanager"
	"github.com/orneryd/edgescript/pkg/wire"
)

// Execute runs a wire.ScriptTree against dm and returns the merged result
// tree, keyed by node name at every level (spec §4.7). The top-level
// incoming item is the empty string.
func Execute(ctx context.Context, dm *datamanager.DM, tree wire.ScriptTree) (map[string]any, error) {
	return executeNode(ctx, dm, "", tree)
}

func executeNode(ctx context.Context, dm *datamanager.DM, incoming string, node wire.ScriptTree) (map[string]any, error) {
	root := "$" + uuid.NewString()
	if err := dm.Append(ctx, root+"->$input", []string{incoming}); err != nil {
		return nil, err
	}

	instrs, err := ParseScript(node.Script)
	if err != nil {
		return nil, err
	}
	if err := RunInstrs(ctx, dm, root, instrs); err != nil {
		return nil, err
	}
	rs, err := dm.Get(ctx, root+"->$output")
	if err != nil {
		return nil, err
	}

	if len(node.Next) == 0 {
		return map[string]any{node.Name: rs}, nil
	}

	cur := map[string]any{}
	for _, item := range rs {
		sub := map[string]any{}
		for _, child := range node.Next {
			childOut, err := executeNode(ctx, dm, item, child)
			if err != nil {
				return nil, err
			}
			// Each child owns a distinct key (its Name), so its output
			// slots directly into sub — no push/merge needed here. The
			// push-vs-deep-merge asymmetry only applies when folding one
			// item's whole sub-tree into cur alongside every other item's.
			for k, v := range childOut {
				sub[k] = v
			}
		}
		mergeTree(cur, sub)
	}
	return map[string]any{node.Name: cur}, nil
}

// mergeTree folds src into dst per spec §4.7 and §9's merge-asymmetry
// note: an array value is pushed as a whole new sibling element (so
// repeated merges of the same key build an array-of-arrays), while an
// object value is deep-merged key by key. This asymmetry is intentional
// and pinned by S6 — do not "fix" it into a uniform append or a uniform
// deep merge.
func mergeTree(dst, src map[string]any) {
	for k, v := range src {
		switch val := v.(type) {
		case []string:
			existing, _ := dst[k].([][]string)
			dst[k] = append(existing, val)
		case map[string]any:
			existing, ok := dst[k].(map[string]any)
			if !ok {
				existing = map[string]any{}
				dst[k] = existing
			}
			mergeTree(existing, val)
		}
	}
}
