package normalizer

import (
	"fmt"
	"math/rand/v2"

	"github.com/nao1215/notiontidy/internal/model"
)

// Order is the policy used to pick the next page from the worklist.
type Order string

const (
	// OrderFIFO visits pages in the order they were discovered (breadth-first).
	OrderFIFO Order = "fifo"

	// OrderShuffle picks a random pending page each time.
	OrderShuffle Order = "shuffle"
)

// ParseOrder converts a configuration value to an Order.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case OrderFIFO, "":
		return OrderFIFO, nil
	case OrderShuffle:
		return OrderShuffle, nil
	default:
		return "", fmt.Errorf("unknown worklist order %q (expected %q or %q)", s, OrderFIFO, OrderShuffle)
	}
}

// worklist holds the page ids still to visit. Duplicates are allowed;
// the visited set filters them when they are popped.
type worklist struct {
	items []model.PageID
	order Order
	rng   *rand.Rand
}

func newWorklist(order Order, rng *rand.Rand) *worklist {
	return &worklist{
		items: make([]model.PageID, 0),
		order: order,
		rng:   rng,
	}
}

// push appends ids to the worklist.
func (w *worklist) push(ids ...model.PageID) {
	w.items = append(w.items, ids...)
}

// pop removes and returns the next id. It must not be called on an empty worklist.
func (w *worklist) pop() model.PageID {
	i := 0
	if w.order == OrderShuffle && len(w.items) > 1 {
		i = w.randIndex(len(w.items))
	}
	id := w.items[i]
	w.items = append(w.items[:i], w.items[i+1:]...)
	return id
}

func (w *worklist) randIndex(n int) int {
	if w.rng != nil {
		return w.rng.IntN(n)
	}
	return rand.IntN(n)
}

// requeue puts id back at the head of the worklist.
func (w *worklist) requeue(id model.PageID) {
	w.items = append([]model.PageID{id}, w.items...)
}

// len returns the number of pending entries, duplicates included.
func (w *worklist) len() int {
	return len(w.items)
}

// snapshot returns a copy of the pending entries.
func (w *worklist) snapshot() []model.PageID {
	out := make([]model.PageID, len(w.items))
	copy(out, w.items)
	return out
}

// hasUnvisited reports whether any pending id is not in visited.
func (w *worklist) hasUnvisited(visited map[model.PageID]struct{}) bool {
	for _, id := range w.items {
		if _, ok := visited[id]; !ok {
			return true
		}
	}
	return false
}
