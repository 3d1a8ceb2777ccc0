package indexer

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"ytmeta/internal/library"
)

// sortSeasons orders seasons by display name. Unnamed seasons come first.
func sortSeasons(seasons []library.Item) {
	col := collate.New(language.Und)
	sort.SliceStable(seasons, func(i, j int) bool {
		a, b := seasons[i].Name, seasons[j].Name
		switch {
		case a == "" && b == "":
			return false
		case a == "":
			return true
		case b == "":
			return false
		}
		return col.CompareString(a, b) < 0
	})
}

// sortEpisodes orders episodes by premiere date. Undated episodes come first
// and keep their listing order.
func sortEpisodes(episodes []library.Item) {
	sort.SliceStable(episodes, func(i, j int) bool {
		a, b := episodes[i].PremiereDate, episodes[j].PremiereDate
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return true
		case b == nil:
			return false
		}
		return a.Before(*b)
	})
}

func allDated(episodes []library.Item) bool {
	for _, ep := range episodes {
		if ep.PremiereDate == nil {
			return false
		}
	}
	return true
}

// assignment is the computed index for one episode.
type assignment struct {
	index  int
	parent int
}

// dateIndices encodes each episode's premiere date. Episodes must be sorted
// and fully dated. Same-day uploads get increasing offsets in sorted order.
// Two premiere dates share a day when their UTC calendar dates match.
func dateIndices(episodes []library.Item) []assignment {
	out := make([]assignment, len(episodes))
	var (
		prev   time.Time
		offset int
	)
	for i, ep := range episodes {
		date := ep.PremiereDate.UTC()
		if i > 0 && sameDay(date, prev) {
			offset++
		} else {
			offset = 0
			prev = date
		}
		out[i] = assignment{
			index:  int(date.Month())*1000 + date.Day()*10 + offset,
			parent: date.Year(),
		}
	}
	return out
}

// sequentialIndices numbers episodes 1..N under the season's own index.
func sequentialIndices(episodes []library.Item, seasonIndex int) []assignment {
	out := make([]assignment, len(episodes))
	for i := range episodes {
		out[i] = assignment{index: i + 1, parent: seasonIndex}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
