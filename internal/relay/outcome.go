package relay

import "sync"

type Outcome string

const (
	OutcomeSkipped Outcome = "skipped"
	OutcomeSent    Outcome = "sent"
	OutcomeFailed  Outcome = "failed"
)

// decide maps a delivery result to its outcome. Failures are final: the
// relay delivers at most once and never retries.
func decide(sendErr error) Outcome {
	if sendErr != nil {
		return OutcomeFailed
	}
	return OutcomeSent
}

type Stats struct {
	Received int
	Skipped  int
	Sent     int
	Failed   int
}

type counters struct {
	mu sync.Mutex
	s  Stats
}

func (c *counters) record(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.s.Received++
	switch o {
	case OutcomeSkipped:
		c.s.Skipped++
	case OutcomeSent:
		c.s.Sent++
	case OutcomeFailed:
		c.s.Failed++
	}
}

func (c *counters) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}
