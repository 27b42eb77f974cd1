package discovery

// StrategyReport summarizes one strategy's run for diagnostics.
type StrategyReport struct {
	Name          string        `json:"name"`
	State         StrategyState `json:"-"`
	StateName     string        `json:"state"`
	PagesTried    int           `json:"pages_tried"`
	NovelListings int           `json:"novel_listings"`
}

// Session is the state of one storefront crawl. It is owned exclusively
// by the orchestrator for the duration of the crawl and is never shared
// across storefronts. Records keep insertion order: the order of first
// discovery, not page order across strategies.
type Session struct {
	Store          Storefront
	Records        []Listing
	RequestsIssued int
	Strategies     []StrategyReport

	seen map[string]struct{}
}

func newSession(store Storefront) *Session {
	return &Session{
		Store: store,
		seen:  make(map[string]struct{}),
	}
}

// Seen reports whether a canonical URL was already discovered in this
// session.
func (s *Session) Seen(canonicalURL string) bool {
	_, ok := s.seen[canonicalURL]
	return ok
}

// merge canonicalizes each tile and appends the novel ones, returning how
// many were new. Duplicates are dropped silently, never merged or
// overwritten: the first discovery of a canonical URL wins.
func (s *Session) merge(strategyName string, tiles []Tile, canon *Canonicalizer) int {
	novel := 0
	for _, tile := range tiles {
		canonical, err := canon.Canonicalize(tile.RawURL)
		if err != nil {
			continue
		}
		if _, ok := s.seen[canonical]; ok {
			continue
		}
		s.seen[canonical] = struct{}{}
		s.Records = append(s.Records, Listing{
			CanonicalURL:   canonical,
			ListingID:      ExtractListingID(canonical),
			Title:          tile.Title,
			PriceText:      tile.PriceText,
			SourceStrategy: strategyName,
			Store:          s.Store.Name,
		})
		novel++
	}
	return novel
}

func (s *Session) reportStrategy(st *Strategy) {
	s.Strategies = append(s.Strategies, StrategyReport{
		Name:          st.Name,
		State:         st.State(),
		StateName:     st.State().String(),
		PagesTried:    st.PagesTried(),
		NovelListings: st.NovelListings(),
	})
}
