package state

import (
	"github.com/google/uuid"
)

// idClock hands out frame ids. It only moves forward, so an id is never
// reused for the life of the timeline, whatever gets deleted.
type idClock struct {
	last int
}

func (c *idClock) Next() int {
	c.last++
	return c.last
}

// Last returns the most recently issued id.
func (c *idClock) Last() int { return c.last }

// NewSessionID identifies one editing session; it ends up in export metadata.
func NewSessionID() string {
	return uuid.NewString()
}
