package pool

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// relation selects which adjacency direction a traversal walks.
type relation int

const (
	relationParents relation = iota
	relationChildren
)

// txLinks holds the direct parent/child adjacency for one pool entry.
type txLinks struct {
	parents  mapset.Set[ShortID]
	children mapset.Set[ShortID]
}

func newTxLinks() *txLinks {
	return &txLinks{
		parents:  mapset.NewThreadUnsafeSet[ShortID](),
		children: mapset.NewThreadUnsafeSet[ShortID](),
	}
}

func (l *txLinks) direct(r relation) mapset.Set[ShortID] {
	if r == relationParents {
		return l.parents
	}
	return l.children
}

// Links is the parent/child adjacency graph over pool entries. A parent
// relation exists iff an entry's input or cell-dep references another
// entry's output; by construction (inputs can only reference earlier
// outputs) the graph is a DAG.
//
// Grounded on tx-pool/src/component/links.rs: same BFS-via-work-stack
// calc_relation_ids, ported from Rust HashSet/Cow to Go mapset.Set.
type Links struct {
	inner map[ShortID]*txLinks
}

// NewLinks returns an empty Links graph.
func NewLinks() *Links {
	return &Links{inner: make(map[ShortID]*txLinks)}
}

// ensure creates an empty adjacency record for id if one doesn't exist,
// returning the (possibly pre-existing) record so callers can populate its
// parent and child sets directly.
func (l *Links) ensure(id ShortID) *txLinks {
	links, ok := l.inner[id]
	if !ok {
		links = newTxLinks()
		l.inner[id] = links
	}
	return links
}

// Insert records id's adjacency record directly, used when constructing an
// entry's links in one shot (record_entry_links in the original).
func (l *Links) Insert(id ShortID, parents mapset.Set[ShortID]) {
	links := newTxLinks()
	if parents != nil {
		links.parents = parents.Clone()
	}
	l.inner[id] = links
}

// Remove drops id's adjacency record entirely.
func (l *Links) Remove(id ShortID) { delete(l.inner, id) }

// GetParents returns the direct parent set of id, if recorded.
func (l *Links) GetParents(id ShortID) (mapset.Set[ShortID], bool) {
	links, ok := l.inner[id]
	if !ok {
		return nil, false
	}
	return links.parents, true
}

// GetChildren returns the direct child set of id, if recorded.
func (l *Links) GetChildren(id ShortID) (mapset.Set[ShortID], bool) {
	links, ok := l.inner[id]
	if !ok {
		return nil, false
	}
	return links.children, true
}

// Contains reports whether id has an adjacency record at all.
func (l *Links) Contains(id ShortID) bool {
	_, ok := l.inner[id]
	return ok
}

// AddChild adds child to id's child set.
func (l *Links) AddChild(id, child ShortID) {
	if links, ok := l.inner[id]; ok {
		links.children.Add(child)
	}
}

// AddParent adds parent to id's parent set.
func (l *Links) AddParent(id, parent ShortID) {
	if links, ok := l.inner[id]; ok {
		links.parents.Add(parent)
	}
}

// RemoveChild removes child from id's child set.
func (l *Links) RemoveChild(id, child ShortID) {
	if links, ok := l.inner[id]; ok {
		links.children.Remove(child)
	}
}

// RemoveParent removes parent from id's parent set.
func (l *Links) RemoveParent(id, parent ShortID) {
	if links, ok := l.inner[id]; ok {
		links.parents.Remove(parent)
	}
}

// calcRelationIds computes the transitive closure of relation starting from
// the given seed set, via a work-stack plus visited set. It terminates on
// cycles through the visited guard even though Links is a DAG by
// construction.
func (l *Links) calcRelationIds(seed mapset.Set[ShortID], r relation) mapset.Set[ShortID] {
	stage := seed.Clone()
	result := mapset.NewThreadUnsafeSet[ShortID]()

	for stage.Cardinality() > 0 {
		var id ShortID
		for v := range stage.Iter() {
			id = v
			break
		}
		result.Add(id)
		stage.Remove(id)

		if links, ok := l.inner[id]; ok {
			for next := range links.direct(r).Iter() {
				if !result.Contains(next) {
					stage.Add(next)
				}
			}
		}
	}
	return result
}

// CalcRelationIds exposes calcRelationIds to PoolMap for seeding with a
// precomputed direct-parent set (record_entry_links in the original).
func (l *Links) CalcRelationIds(seed mapset.Set[ShortID], parents bool) mapset.Set[ShortID] {
	r := relationChildren
	if parents {
		r = relationParents
	}
	return l.calcRelationIds(seed, r)
}

// CalcAncestors returns the full transitive closure of parents of id.
func (l *Links) CalcAncestors(id ShortID) mapset.Set[ShortID] {
	seed := mapset.NewThreadUnsafeSet[ShortID]()
	if links, ok := l.inner[id]; ok {
		seed = links.parents.Clone()
	}
	return l.calcRelationIds(seed, relationParents)
}

// CalcDescendants returns the full transitive closure of children of id.
func (l *Links) CalcDescendants(id ShortID) mapset.Set[ShortID] {
	seed := mapset.NewThreadUnsafeSet[ShortID]()
	if links, ok := l.inner[id]; ok {
		seed = links.children.Clone()
	}
	return l.calcRelationIds(seed, relationChildren)
}

// Clear empties the graph.
func (l *Links) Clear() { l.inner = make(map[ShortID]*txLinks) }
