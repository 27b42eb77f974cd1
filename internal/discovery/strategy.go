package discovery

// StrategyState is the lifecycle state of a pagination strategy. States
// only move forward; EXHAUSTED and FAILED are terminal.
type StrategyState int

const (
	// StateStarting means no page has been fetched yet.
	StateStarting StrategyState = iota
	// StateActive means at least one page produced novel listings.
	StateActive
	// StateExhausted means the strategy has nothing new left to
	// contribute. Not an error.
	StateExhausted
	// StateFailed means fetching a page failed after the fetch layer's
	// retry allowance.
	StateFailed
)

func (s StrategyState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Strategy is one pagination hypothesis: a URL builder plus an iteration
// bound. All strategies share identical control flow and differ only in
// URL construction and the shape of their page list, so this is a plain
// struct, not an interface.
type Strategy struct {
	Name string
	// BuildURL maps a page index to a request URL. Pure.
	BuildURL func(page int) string
	// Pages are the page indices to attempt, in order. A contiguous range
	// and a literal offset list share this representation.
	Pages []int
	// EmptyThreshold is the number of consecutive pages with zero novel
	// listings tolerated before the strategy is judged exhausted. Blind
	// probes with an unknown indexing base get a higher threshold than
	// strategies whose first page is already known to carry content.
	EmptyThreshold int

	state            StrategyState
	pagesTried       int
	consecutiveEmpty int
	novelListings    int
}

// State returns the current lifecycle state.
func (s *Strategy) State() StrategyState {
	return s.state
}

// Terminal reports whether the strategy must not issue further requests.
func (s *Strategy) Terminal() bool {
	return s.state == StateExhausted || s.state == StateFailed
}

// NovelListings returns how many not-yet-seen listings this strategy
// contributed. Productivity is measured strictly by novelty: a wrong
// strategy can return the first page's content forever.
func (s *Strategy) NovelListings() int {
	return s.novelListings
}

// PagesTried returns how many pages were fetched for this strategy.
func (s *Strategy) PagesTried() int {
	return s.pagesTried
}

// RecordPage advances the state machine after a successfully fetched page
// whose tiles yielded novelCount not-yet-seen listings.
func (s *Strategy) RecordPage(novelCount int) {
	if s.Terminal() {
		return
	}
	s.pagesTried++
	if novelCount > 0 {
		s.state = StateActive
		s.consecutiveEmpty = 0
		s.novelListings += novelCount
		return
	}
	s.consecutiveEmpty++
	threshold := s.EmptyThreshold
	if threshold <= 0 {
		threshold = 1
	}
	if s.consecutiveEmpty >= threshold {
		s.state = StateExhausted
	}
}

// RecordFailure marks the strategy failed; the fetch layer has already
// spent its retry allowance on the page.
func (s *Strategy) RecordFailure() {
	if s.Terminal() {
		return
	}
	s.pagesTried++
	s.state = StateFailed
}

// Exhaust marks voluntary exhaustion, used when the page budget runs out
// while the strategy is still active.
func (s *Strategy) Exhaust() {
	if !s.Terminal() {
		s.state = StateExhausted
	}
}

// PageRange returns the inclusive index range [from, to] as a page list.
func PageRange(from, to int) []int {
	if to < from {
		return nil
	}
	pages := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		pages = append(pages, p)
	}
	return pages
}
