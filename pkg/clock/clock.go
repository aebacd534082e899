// Package clock provides an injectable time source so the registry and
// reaper can be tested without wall-clock sleeps, and mints task
// identifiers.
package clock

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time.Now so tests can substitute a fake.
type Clock interface {
	Now() time.Time
}

// Real is the production Clock backed by the system time.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// System is the shared production clock instance.
var System Clock = Real{}

// NewTaskID mints a new task identifier in the "task-<uuid>" form used
// throughout the wire API and logs.
func NewTaskID() string {
	return fmt.Sprintf("task-%s", uuid.NewString())
}
