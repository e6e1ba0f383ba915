package bench

import (
	"sort"
	"time"

	"dnsjumper/internal/probe"
	"dnsjumper/internal/profile"
)

// Report holds the outcome of benchmarking one profile. Results preserve
// the profile's server order regardless of probe completion order.
type Report struct {
	Profile   profile.Profile
	Results   []probe.Result
	Aggregate time.Duration // minimum successful latency
	OK        bool          // false when every server failed
	Rank      int           // 1-based, assigned after ranking the batch
}

// aggregate derives the report's aggregate latency from its results.
func (r *Report) aggregate() {
	r.OK = false
	for _, res := range r.Results {
		if !res.OK() {
			continue
		}
		if !r.OK || res.Latency < r.Aggregate {
			r.Aggregate = res.Latency
		}
		r.OK = true
	}
}

// rank sorts reports ascending by aggregate latency and assigns ranks.
// Profiles whose aggregates differ by less than epsilon keep their input
// order (stable sort), and profiles with no successful probe sort last,
// also in input order.
func rank(reports []*Report, epsilon time.Duration) {
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if a.OK != b.OK {
			return a.OK
		}
		if !a.OK {
			return false
		}
		return a.Aggregate+epsilon < b.Aggregate
	})
	for i, r := range reports {
		r.Rank = i + 1
	}
}
