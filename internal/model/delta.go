package model

// Delta is the difference between two runs: issues that appeared and
// issues that disappeared. Both slices are in SortIssues order.
type Delta struct {
	// Added holds issues present in the current run but not the previous.
	Added []Issue `json:"added"`

	// Removed holds issues present in the previous run but not the current.
	Removed []Issue `json:"removed"`

	// Unchanged is the count of issues present in both runs.
	Unchanged int `json:"unchanged"`
}

// ComputeDelta computes the set difference between a previous and a
// current run over full issue keys: added = current − previous,
// removed = previous − current. The computation is a pure function of
// the two inputs, so running it twice over the same snapshots yields
// identical results.
func ComputeDelta(previous, current []Issue) Delta {
	prevSet := make(map[Key]Issue, len(previous))
	for _, i := range previous {
		prevSet[i.Key()] = i
	}
	curSet := make(map[Key]Issue, len(current))
	for _, i := range current {
		curSet[i.Key()] = i
	}

	var d Delta
	for k, i := range curSet {
		if _, ok := prevSet[k]; !ok {
			d.Added = append(d.Added, i)
		}
	}
	for k, i := range prevSet {
		if _, ok := curSet[k]; ok {
			d.Unchanged++
		} else {
			d.Removed = append(d.Removed, i)
		}
	}

	SortIssues(d.Added)
	SortIssues(d.Removed)
	return d
}

// AddedBySite returns per-site counts of added issues.
func (d Delta) AddedBySite() map[string]int {
	return countBySite(d.Added)
}

// RemovedBySite returns per-site counts of removed issues.
func (d Delta) RemovedBySite() map[string]int {
	return countBySite(d.Removed)
}

func countBySite(issues []Issue) map[string]int {
	counts := make(map[string]int)
	for _, i := range issues {
		counts[i.Site]++
	}
	return counts
}
