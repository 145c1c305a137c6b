// Package score implements the vouch relationship scoring model:
// normalization of raw voucher/subject pair records, the additive
// relationship and credibility scoring functions, tier classification,
// and aggregate distribution reporting. It exposes [Scorer],
// [PairSignal], [Scored], and [Accumulator].
package score
