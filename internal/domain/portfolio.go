package domain

// KeywordPack holds the term lists a portfolio's candidates are scored
// against. Exclude terms are layered on top of a shared off-topic list.
type KeywordPack struct {
	Primary   []string `json:"primary" yaml:"primary"`
	Secondary []string `json:"secondary" yaml:"secondary"`
	Exclude   []string `json:"exclude" yaml:"exclude"`
}

// Portfolio is a tracked topical domain for which briefs are generated.
type Portfolio struct {
	ID       string            `json:"id" yaml:"id"`
	Label    string            `json:"label" yaml:"label"`
	Keywords KeywordPack       `json:"keywords" yaml:"keywords"`
	Feeds    map[string][]Feed `json:"feeds" yaml:"feeds"` // keyed by region ID
}

// Region is a geographic edition with its own timezone-relative cadence.
type Region struct {
	ID       string `json:"id" yaml:"id"`
	Label    string `json:"label" yaml:"label"`
	Timezone string `json:"timezone" yaml:"timezone"`
}

// Agent identifies one (portfolio, region) coverage slot.
type Agent struct {
	Portfolio string `json:"portfolio"`
	Region    string `json:"region"`
	Label     string `json:"label,omitempty"`
}

func (a Agent) Key() string {
	return a.Portfolio + "/" + a.Region
}
