package datamanager

import (
	"context"

	"github.com/orneryd/edgescript/pkg/storage"
)

func forwardKey(source, code string) string { return source + "->" + code }
func backwardKey(code, target string) string { return target + "<-" + code }

// ensureSeededForward seeds the MemTable's (source, code) fibre from the
// store exactly once per session, per spec §4.3: "on first read of a
// (s,c) ... fibre not yet cached, the backing query is issued and results
// are seeded as temp entries". Temp fibres (either half starting with '$')
// never touch the store.
func (dm *DM) ensureSeededForward(ctx context.Context, source, code string) error {
	if storage.IsTempIdent(source) || storage.IsTempIdent(code) {
		return nil
	}
	key := forwardKey(source, code)
	if dm.seeded[key] {
		return nil
	}
	vals, err := dm.store.GetTargetV(ctx, source, code, dm.auth)
	if err != nil {
		dm.metrics.storageErrors.WithLabelValues(authLabel(dm.auth)).Inc()
		return wrapStorageErr(err, "get_target_v %s->%s", source, code)
	}
	for _, v := range vals {
		dm.mem.AppendExistsEdge(source, code, v)
	}
	dm.seeded[key] = true
	return nil
}

// ensureSeededBackward is the (code, target)-fibre symmetric counterpart of
// ensureSeededForward.
func (dm *DM) ensureSeededBackward(ctx context.Context, code, target string) error {
	if storage.IsTempIdent(code) || storage.IsTempIdent(target) {
		return nil
	}
	key := backwardKey(code, target)
	if dm.seeded[key] {
		return nil
	}
	vals, err := dm.store.GetSourceV(ctx, code, target, dm.auth)
	if err != nil {
		dm.metrics.storageErrors.WithLabelValues(authLabel(dm.auth)).Inc()
		return wrapStorageErr(err, "get_source_v %s<-%s", target, code)
	}
	for _, v := range vals {
		dm.mem.AppendExistsEdge(v, code, target)
	}
	dm.seeded[key] = true
	return nil
}

// GetSingleTarget returns the last committed-or-temp target under
// (source, code), or "" if the fibre is empty (spec §9 open question:
// empty string on absence for the singular get_target accessor). Used by
// pkg/script to read instruction descriptor fields, which are data, not
// paths.
func (dm *DM) GetSingleTarget(ctx context.Context, source, code string) (string, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	vals, err := dm.getTargetV(ctx, source, code)
	if err != nil {
		return "", err
	}
	if len(vals) == 0 {
		return "", nil
	}
	return vals[len(vals)-1], nil
}

// getTargetV returns every target in the (source, code) fibre, seeding the
// cache first if this is a persistent fibre not yet read this session.
func (dm *DM) getTargetV(ctx context.Context, source, code string) ([]string, error) {
	if storage.IsTempIdent(source) || storage.IsTempIdent(code) {
		return dm.mem.GetTargetVUnchecked(source, code), nil
	}
	if err := dm.ensureSeededForward(ctx, source, code); err != nil {
		return nil, err
	}
	return dm.mem.GetTargetVUnchecked(source, code), nil
}

// getSourceV is the (code, target)-fibre symmetric counterpart of
// getTargetV.
func (dm *DM) getSourceV(ctx context.Context, code, target string) ([]string, error) {
	if storage.IsTempIdent(code) || storage.IsTempIdent(target) {
		return dm.mem.GetSourceVUnchecked(code, target), nil
	}
	if err := dm.ensureSeededBackward(ctx, code, target); err != nil {
		return nil, err
	}
	return dm.mem.GetSourceVUnchecked(code, target), nil
}

// appendTargetV inserts (source, code, item) for each item, honouring the
// temp/persistent split of spec §4.3: temp fibres are buffered only,
// persistent fibres are labelled with the current auth's WriteLabel and
// bulk-inserted at commit.
func (dm *DM) appendTargetV(ctx context.Context, source, code string, items []string) error {
	if storage.IsTempIdent(source) || storage.IsTempIdent(code) {
		for _, it := range items {
			dm.mem.InsertTempEdge(source, code, it)
		}
		return nil
	}
	if err := dm.ensureSeededForward(ctx, source, code); err != nil {
		return err
	}
	paper, pen := dm.auth.WriteLabel()
	for _, it := range items {
		dm.mem.InsertEdgeLabeled(source, code, it, paper, pen)
	}
	return nil
}

// appendSourceV is the (code, target)-fibre symmetric counterpart of
// appendTargetV: each item becomes the source of a new (item, code,
// target) edge.
func (dm *DM) appendSourceV(ctx context.Context, code, target string, items []string) error {
	if storage.IsTempIdent(code) || storage.IsTempIdent(target) {
		for _, it := range items {
			dm.mem.InsertTempEdge(it, code, target)
		}
		return nil
	}
	if err := dm.ensureSeededBackward(ctx, code, target); err != nil {
		return err
	}
	paper, pen := dm.auth.WriteLabel()
	for _, it := range items {
		dm.mem.InsertEdgeLabeled(it, code, target, paper, pen)
	}
	return nil
}

// setTargetV clears the (source, code) fibre then appends items, recording
// a pending delete for persistent fibres so the clear reaches the store at
// commit, before the bulk insert (spec §4.3).
func (dm *DM) setTargetV(source, code string, items []string) error {
	dm.mem.DeleteEdgeWithSourceCode(source, code)
	if storage.IsTempIdent(source) || storage.IsTempIdent(code) {
		for _, it := range items {
			dm.mem.InsertTempEdge(source, code, it)
		}
		return nil
	}
	key := forwardKey(source, code)
	dm.pendingDeletes[key] = pendingDelete{forward: true, a: source, b: code}
	dm.seeded[key] = true

	paper, pen := dm.auth.WriteLabel()
	for _, it := range items {
		dm.mem.InsertEdgeLabeled(source, code, it, paper, pen)
	}
	return nil
}

// setSourceV is the (code, target)-fibre symmetric counterpart of
// setTargetV.
func (dm *DM) setSourceV(code, target string, items []string) error {
	dm.mem.DeleteEdgeWithCodeTarget(code, target)
	if storage.IsTempIdent(code) || storage.IsTempIdent(target) {
		for _, it := range items {
			dm.mem.InsertTempEdge(it, code, target)
		}
		return nil
	}
	key := backwardKey(code, target)
	dm.pendingDeletes[key] = pendingDelete{forward: false, a: code, b: target}
	dm.seeded[key] = true

	paper, pen := dm.auth.WriteLabel()
	for _, it := range items {
		dm.mem.InsertEdgeLabeled(it, code, target, paper, pen)
	}
	return nil
}
