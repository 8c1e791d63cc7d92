package paging

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// PolicyReport summarizes one policy after a comparison run
type PolicyReport struct {
	Algorithm  Algorithm  `json:"algorithm"`
	PageFaults int        `json:"pageFaults"`
	PageHits   int        `json:"pageHits"`
	HitRatio   float64    `json:"hitRatio"`
	Evictions  int        `json:"evictions"`
	Frames     []*PageKey `json:"frames"`
}

// ComparisonReport holds one PolicyReport per algorithm, in the order requested
type ComparisonReport struct {
	FrameCount int            `json:"frameCount"`
	Accesses   int            `json:"accesses"`
	Reports    []PolicyReport `json:"reports"`
	Best       Algorithm      `json:"best"`
}

// Compare runs the same access sequence through one independent session per algorithm
// Sessions share nothing but the options' logger, metrics and snapshot store, and run in parallel
// With no algorithms given, every supported algorithm is compared
func Compare(ctx context.Context, config *Config, accesses []Access, algorithms []Algorithm, opts ...SessionOption) (*ComparisonReport, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if len(algorithms) == 0 {
		algorithms = Algorithms
	}

	sessions := make([]*Session, len(algorithms))
	for i, algorithm := range algorithms {
		cfg := config.Clone()
		cfg.Algorithm = string(algorithm)
		s, err := NewSession(fmt.Sprintf("compare-%s", algorithm), cfg, opts...)
		if err != nil {
			return nil, err
		}
		sessions[i] = s
	}

	reports := make([]PolicyReport, len(sessions))
	errs := make([]error, len(sessions))

	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func(i int, s *Session) {
			defer wg.Done()

			results, err := s.Run(ctx, accesses)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", s.Algorithm(), err)
				return
			}

			evictions := 0
			for _, r := range results {
				if r.Replaced != nil {
					evictions++
				}
			}
			st := s.State()
			reports[i] = PolicyReport{
				Algorithm:  s.Algorithm(),
				PageFaults: st.PageFaults,
				PageHits:   st.PageHits,
				HitRatio:   st.HitRatio,
				Evictions:  evictions,
				Frames:     st.Frames,
			}
		}(i, s)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	report := &ComparisonReport{
		FrameCount: config.FrameCount,
		Accesses:   len(accesses),
		Reports:    reports,
	}
	best := -1
	for i, r := range reports {
		if best < 0 || r.HitRatio > reports[best].HitRatio {
			best = i
		}
	}
	if best >= 0 {
		report.Best = reports[best].Algorithm
	}
	return report, nil
}

// Report returns the entry for algorithm
func (r *ComparisonReport) Report(algorithm Algorithm) (PolicyReport, bool) {
	for _, pr := range r.Reports {
		if pr.Algorithm == algorithm {
			return pr, true
		}
	}
	return PolicyReport{}, false
}
