package indexer

import "time"

// Mode is the numbering strategy chosen for a season.
type Mode string

const (
	ModeDate       Mode = "date"
	ModeSequential Mode = "sequential"
)

// Change is one computed index assignment.
type Change struct {
	ShowName          string
	ItemID            string
	Kind              string
	Name              string
	Mode              Mode
	IndexNumber       int
	ParentIndexNumber *int
	Applied           bool
}

// Failure records an item whose new index could not be persisted, or a show
// whose children could not be listed.
type Failure struct {
	ShowID   string
	ShowName string
	ItemID   string
	ItemKind string
	Kind     string
	Message  string
	Fatal    bool
}

// Report summarizes one indexing pass.
type Report struct {
	RunID           string
	StartedAt       time.Time
	FinishedAt      time.Time
	DryRun          bool
	Cancelled       bool
	ShowsTotal      int
	ShowsIndexed    int
	ShowsSkipped    int
	SeasonsUpdated  int
	EpisodesUpdated int
	Changes         []Change
	Failures        []Failure
}

// Duration returns how long the pass ran.
func (r Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// showResult accumulates one show's contribution before it is merged into
// the shared report.
type showResult struct {
	indexed  bool
	skipped  bool
	seasons  int
	episodes int
	changes  []Change
	failures []Failure
}

func (r *Report) merge(s showResult) {
	if s.indexed {
		r.ShowsIndexed++
	}
	if s.skipped {
		r.ShowsSkipped++
	}
	r.SeasonsUpdated += s.seasons
	r.EpisodesUpdated += s.episodes
	r.Changes = append(r.Changes, s.changes...)
	r.Failures = append(r.Failures, s.failures...)
}
