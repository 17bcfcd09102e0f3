package pool

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Edges is the raw bipartite index of outpoint <-> entry relationships.
// It carries no policy; PoolMap is the only caller and is responsible for
// keeping the invariant "membership reflects exactly the set of live
// entries" (spec §3).
//
// Grounded on tx-pool/src/component/edges.rs: same four maps, same
// insert/remove/clear shape, ported from Rust HashMap/HashSet to Go map and
// mapset.Set.
type Edges struct {
	// inputs maps an outpoint to the short_id of the pool entry that
	// consumes it as an input.
	inputs map[OutPoint]ShortID
	// outputs maps an outpoint produced by a pool entry to the short_id of
	// the entry that consumes it, if any (nil set entry = unspent).
	outputs map[OutPoint]*ShortID
	// deps maps an outpoint to the set of entries that cite it as a cell-dep.
	deps map[OutPoint]mapset.Set[ShortID]
	// headerDeps maps an entry to the header hashes it depends on.
	headerDeps map[ShortID][]Hash
}

// NewEdges returns an empty Edges index.
func NewEdges() *Edges {
	return &Edges{
		inputs:     make(map[OutPoint]ShortID),
		outputs:    make(map[OutPoint]*ShortID),
		deps:       make(map[OutPoint]mapset.Set[ShortID]),
		headerDeps: make(map[ShortID][]Hash),
	}
}

func (e *Edges) InputsLen() int     { return len(e.inputs) }
func (e *Edges) OutputsLen() int    { return len(e.outputs) }
func (e *Edges) DepsLen() int       { return len(e.deps) }
func (e *Edges) HeaderDepsLen() int { return len(e.headerDeps) }

// InsertInput records that out is consumed by id.
func (e *Edges) InsertInput(out OutPoint, id ShortID) { e.inputs[out] = id }

// RemoveInput removes the input record for out, returning the short_id it
// held if any.
func (e *Edges) RemoveInput(out OutPoint) (ShortID, bool) {
	id, ok := e.inputs[out]
	if ok {
		delete(e.inputs, out)
	}
	return id, ok
}

// GetInput looks up the consumer of out, if recorded.
func (e *Edges) GetInput(out OutPoint) (ShortID, bool) {
	id, ok := e.inputs[out]
	return id, ok
}

// InsertOutput records out as produced and currently unspent.
func (e *Edges) InsertOutput(out OutPoint) { e.outputs[out] = nil }

// InsertConsumedOutput records out as produced and already spent by id.
func (e *Edges) InsertConsumedOutput(out OutPoint, id ShortID) {
	v := id
	e.outputs[out] = &v
}

// RemoveOutput drops the output record for out.
func (e *Edges) RemoveOutput(out OutPoint) (*ShortID, bool) {
	v, ok := e.outputs[out]
	if ok {
		delete(e.outputs, out)
	}
	return v, ok
}

// GetOutput returns the consumer recorded for out, if the outpoint is known
// to the pool at all. The returned pointer is nil if the output is unspent.
func (e *Edges) GetOutput(out OutPoint) (*ShortID, bool) {
	v, ok := e.outputs[out]
	return v, ok
}

// SetOutputConsumer mutates the consumer recorded for out in place. Passing
// nil marks the output as unspent again.
func (e *Edges) SetOutputConsumer(out OutPoint, id *ShortID) {
	if _, ok := e.outputs[out]; ok {
		e.outputs[out] = id
	}
}

// InsertDep records that id cites out as a cell-dep.
func (e *Edges) InsertDep(out OutPoint, id ShortID) {
	set, ok := e.deps[out]
	if !ok {
		set = mapset.NewThreadUnsafeSet[ShortID]()
		e.deps[out] = set
	}
	set.Add(id)
}

// RemoveDeps removes and returns the full set of entries that cited out.
func (e *Edges) RemoveDeps(out OutPoint) (mapset.Set[ShortID], bool) {
	set, ok := e.deps[out]
	if ok {
		delete(e.deps, out)
	}
	return set, ok
}

// GetDeps returns the set of entries citing out as a cell-dep, if any.
func (e *Edges) GetDeps(out OutPoint) (mapset.Set[ShortID], bool) {
	set, ok := e.deps[out]
	return set, ok
}

// DeleteTxIDByDep removes a single id from out's dep set, dropping the map
// entry entirely once the set becomes empty.
func (e *Edges) DeleteTxIDByDep(out OutPoint, id ShortID) {
	set, ok := e.deps[out]
	if !ok {
		return
	}
	set.Remove(id)
	if set.Cardinality() == 0 {
		delete(e.deps, out)
	}
}

// SetHeaderDeps records the header-deps list for id.
func (e *Edges) SetHeaderDeps(id ShortID, headers []Hash) {
	if len(headers) == 0 {
		return
	}
	e.headerDeps[id] = headers
}

// GetHeaderDeps returns the header-deps recorded for id.
func (e *Edges) GetHeaderDeps(id ShortID) ([]Hash, bool) {
	h, ok := e.headerDeps[id]
	return h, ok
}

// RemoveHeaderDeps drops the header-deps entry for id.
func (e *Edges) RemoveHeaderDeps(id ShortID) { delete(e.headerDeps, id) }

// AllHeaderDeps iterates every entry with recorded header-deps.
func (e *Edges) AllHeaderDeps(f func(id ShortID, headers []Hash) bool) {
	for id, h := range e.headerDeps {
		if !f(id, h) {
			return
		}
	}
}

// Clear empties every index.
func (e *Edges) Clear() {
	e.inputs = make(map[OutPoint]ShortID)
	e.outputs = make(map[OutPoint]*ShortID)
	e.deps = make(map[OutPoint]mapset.Set[ShortID])
	e.headerDeps = make(map[ShortID][]Hash)
}
