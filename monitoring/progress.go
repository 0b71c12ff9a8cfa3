package monitoring

import (
	"fmt"
	"sync"
	"time"
)

// A ProgressBar tracks how many items of a run are in progress and finished.
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// MoveInProgressToFinished reduces the number of in progress item by a certain
// amount and increase the finished item by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	if amount > b.InProgress {
		amount = b.InProgress
	}

	b.InProgress -= amount
	b.Finished += amount
}

// String renders the bar as one line, such as "tests: 3/5 (1 running)".
func (b *ProgressBar) String() string {
	b.Lock()
	defer b.Unlock()

	return fmt.Sprintf("%s: %d/%d (%d running, %s)",
		b.Name, b.Finished, b.Total, b.InProgress,
		time.Since(b.StartTime).Round(time.Millisecond))
}
