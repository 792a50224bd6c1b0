package datamanager

import "context"

// Paper ownership helpers, supplementing the distilled spec from
// original_source/src/server/service/mod.rs: before a host Divides a
// session DM for a given paper, it can check whether the requesting
// identity is that paper's owner, one of its managers, or either (a
// "writer or higher"). Each is an ordinary path query over the
// conventional `paper->owner` / `paper->manager` fibres — no new storage
// shape, just named predicates. These are additive convenience: no
// invariant in spec §8 depends on them.
func (dm *DM) IsOwner(ctx context.Context, paper, identity string) (bool, error) {
	owners, err := dm.Get(ctx, paper+"->owner")
	if err != nil {
		return false, err
	}
	return contains(owners, identity), nil
}

func (dm *DM) IsManager(ctx context.Context, paper, identity string) (bool, error) {
	managers, err := dm.Get(ctx, paper+"->manager")
	if err != nil {
		return false, err
	}
	return contains(managers, identity), nil
}

// IsWriterOrHigher reports whether identity may write paper: identity must
// be the paper's owner or one of its managers. The DM's own Auth grants
// nothing here; even under Root, an unlisted identity yields false.
func (dm *DM) IsWriterOrHigher(ctx context.Context, paper, identity string) (bool, error) {
	owner, err := dm.IsOwner(ctx, paper, identity)
	if err != nil || owner {
		return owner, err
	}
	return dm.IsManager(ctx, paper, identity)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
