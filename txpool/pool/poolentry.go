package pool

// PoolEntry is the multi-indexed record PoolMap stores per transaction:
// short_id is the unique key, ScoreKey/Status/EvictKey are the ordered
// non-unique axes (spec §3). Grounded on tx-pool/src/component/pool_map.rs's
// #[derive(MultiIndexMap)] PoolEntry; Go has no equivalent derive macro, so
// PoolMap re-indexes the three sortedIndex/insertionIndex shadows by hand on
// every insert/remove instead.
type PoolEntry struct {
	ShortID  ShortID
	Score    AncestorsScoreSortKey
	Status   Status
	EvictKey EvictKey
	Inner    *TxEntry
}
