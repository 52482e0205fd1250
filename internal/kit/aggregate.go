// internal/kit/aggregate.go
package kit

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/solatis/kitkeeper/internal/types"
)

/*
 * Kit aggregation and validation.
 *
 * The aggregator accumulates classified samples into kits keyed by kit
 * name; first-seen order defines kit iteration order in exports. Validation
 * runs once per kit after all its samples are known and assigns exactly one
 * validity state, checked in fixed priority order:
 *
 *   1. total count below minimum      -> too_few_samples
 *   2. every sample uncategorized     -> only_other (when excluded)
 *   3. any sample uncategorized       -> mixed_other (when excluded)
 *   4. otherwise                      -> valid
 *
 * Valid and rejected kits are disjoint partitions of the full kit set; both
 * are exportable. Aggregation never fails and never drops a sample: the sum
 * of samples across all kits equals the input sample count.
 */

// ValidationConfig holds the kit inclusion rules.
type ValidationConfig struct {
	MinTotal          int
	ExcludeOnlyOther  bool
	ExcludeMixedOther bool
}

// Aggregator groups classified samples into kits.
type Aggregator struct {
	kits  map[string]*types.Kit
	order []string
	total int
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{kits: make(map[string]*types.Kit)}
}

// Add routes a sample into its kit, creating the kit on first sight.
func (a *Aggregator) Add(s types.Sample) {
	k, ok := a.kits[s.Kit]
	if !ok {
		k = types.NewKit(s.Kit)
		a.kits[s.Kit] = k
		a.order = append(a.order, s.Kit)
	}
	k.Add(s)
	a.total++
}

// Kits returns all kits in first-seen order.
func (a *Aggregator) Kits() []*types.Kit {
	out := make([]*types.Kit, len(a.order))
	for i, name := range a.order {
		out[i] = a.kits[name]
	}
	return out
}

// TotalSamples is the number of samples added so far.
func (a *Aggregator) TotalSamples() int {
	return a.total
}

// Validate computes and records the validity state for one kit.
func Validate(k *types.Kit, cfg ValidationConfig) types.KitValidity {
	switch {
	case k.TotalCount() < cfg.MinTotal:
		k.Validity = types.KitRejectedMinTotal
	case cfg.ExcludeOnlyOther && k.OnlyOther():
		k.Validity = types.KitRejectedOnlyOther
	case cfg.ExcludeMixedOther && k.MixedOther():
		k.Validity = types.KitRejectedMixedOther
	default:
		k.Validity = types.KitValid
	}
	return k.Validity
}

// Partition validates every kit and splits them into valid and rejected
// sets, preserving input order in both.
func Partition(kits []*types.Kit, cfg ValidationConfig) (valid, rejected []*types.Kit) {
	for _, k := range kits {
		if Validate(k, cfg) == types.KitValid {
			valid = append(valid, k)
		} else {
			rejected = append(rejected, k)
		}
	}
	return valid, rejected
}

// SortByTrailingIndex orders samples for export: stems with a trailing
// " N" take number sort numerically first, the rest sort case-insensitively
// by stem. This is the encounter order phase 2 sees, so velocity layers
// stack in take order regardless of filesystem enumeration quirks.
func SortByTrailingIndex(samples []types.Sample) {
	sort.SliceStable(samples, func(i, j int) bool {
		si, iok := trailingIndex(samples[i].Path)
		sj, jok := trailingIndex(samples[j].Path)
		if iok != jok {
			return iok
		}
		if iok && jok && si != sj {
			return si < sj
		}
		return stemLower(samples[i].Path) < stemLower(samples[j].Path)
	})
}

// trailingIndex extracts a take number from a stem like "Snare Dusty 12".
func trailingIndex(path string) (int, bool) {
	stem := stemLower(path)
	cut := strings.LastIndex(stem, " ")
	if cut < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(stem[cut+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

func stemLower(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
