package score

// Report is the aggregate tier distribution over a set of scored pairs.
type Report struct {
	TotalPairs            int              `json:"total_pairs" yaml:"totalPairs"`
	Counts                map[Tier]int     `json:"counts" yaml:"counts"`
	Percentages           map[Tier]float64 `json:"percentages" yaml:"percentages"`
	MeanRelationshipScore float64          `json:"mean_relationship_score" yaml:"meanRelationshipScore"`
	MeanCredibilityScore  float64          `json:"mean_credibility_score" yaml:"meanCredibilityScore"`
	AnyInteractionRate    float64          `json:"any_interaction_rate" yaml:"anyInteractionRate"`
	BidirectionalRate     float64          `json:"bidirectional_rate" yaml:"bidirectionalRate"`
}

// Accumulator folds scored pairs into running sums. Accumulators from
// parallel batches may be merged in any order; percentages and means
// are computed once, in Finalize.
type Accumulator struct {
	total          int
	counts         map[Tier]int
	relSum         float64
	credSum        float64
	anyInteraction int
	bidirectional  int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{counts: make(map[Tier]int, len(Tiers()))}
}

// Add folds one scored pair into the accumulator.
func (a *Accumulator) Add(s *Scored) {
	a.total++
	a.counts[s.Tier]++
	a.relSum += s.RelationshipScore
	a.credSum += s.CredibilityScore
	if s.AnyInteraction {
		a.anyInteraction++
	}
	if s.Bidirectional {
		a.bidirectional++
	}
}

// Merge absorbs another accumulator. Commutative and associative.
func (a *Accumulator) Merge(o *Accumulator) {
	if o == nil {
		return
	}
	a.total += o.total
	for t, n := range o.counts {
		a.counts[t] += n
	}
	a.relSum += o.relSum
	a.credSum += o.credSum
	a.anyInteraction += o.anyInteraction
	a.bidirectional += o.bidirectional
}

// Finalize computes the report. An empty accumulator yields zero
// counts, rates, and means rather than an error; percentages are 0.0
// when there are no pairs.
func (a *Accumulator) Finalize() *Report {
	r := &Report{
		TotalPairs:  a.total,
		Counts:      make(map[Tier]int, len(Tiers())),
		Percentages: make(map[Tier]float64, len(Tiers())),
	}

	for _, t := range Tiers() {
		r.Counts[t] = a.counts[t]
		if a.total > 0 {
			r.Percentages[t] = float64(a.counts[t]) / float64(a.total) * 100
		} else {
			r.Percentages[t] = 0
		}
	}

	if a.total > 0 {
		n := float64(a.total)
		r.MeanRelationshipScore = a.relSum / n
		r.MeanCredibilityScore = a.credSum / n
		r.AnyInteractionRate = float64(a.anyInteraction) / n
		r.BidirectionalRate = float64(a.bidirectional) / n
	}

	return r
}

// Aggregate reduces a collection of scored pairs into a report in a
// single pass. Input order does not affect the result.
func Aggregate(list []*Scored) *Report {
	acc := NewAccumulator()
	for _, s := range list {
		acc.Add(s)
	}
	return acc.Finalize()
}
