package model

// Checkpoint is the persisted traversal state of one root.
// It lets an interrupted run continue without revisiting pages.
type Checkpoint struct {
	// Visited holds every page already processed, in visit order.
	Visited []PageID `json:"visited"`

	// Pending is the worklist as it was after the last visited page.
	Pending []PageID `json:"pending"`
}

// Empty reports whether there is nothing to resume from.
func (c *Checkpoint) Empty() bool {
	return c == nil || len(c.Pending) == 0
}
