package placements

import "sort"

// ranksAhead reports whether a sorts strictly before b: higher effective bid
// first, earlier createdAt on equal bids.
func ranksAhead(a, b *Placement) bool {
	if c := a.EffectiveBid().Cmp(b.EffectiveBid()); c != 0 {
		return c > 0
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// insertionIndex finds where p belongs in an already ordered queue. Entries
// that tie with p completely stay ahead of it.
func insertionIndex(queue []*Placement, p *Placement) int {
	return sort.Search(len(queue), func(i int) bool {
		return ranksAhead(p, queue[i])
	})
}

// sortQueue restores order on a queue read from a backend that may not have
// written it sorted.
func sortQueue(queue []*Placement) {
	sort.SliceStable(queue, func(i, j int) bool {
		return ranksAhead(queue[i], queue[j])
	})
}
