package tasks

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

// TaskHandler executes one scheduled task. The returned map is stored on the
// task history row; a non-nil error marks the attempt as failed and lets the
// worker retry up to the task's MaxAttempt.
type TaskHandler func(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error)

var registry = map[string]TaskHandler{}

// Register adds a handler under the given task name. Called from init; a
// duplicate name is a programming error.
func Register(name string, handler TaskHandler) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("task handler %q registered twice", name))
	}
	registry[name] = handler
}

// Get looks up the handler for a task name
func Get(name string) (TaskHandler, bool) {
	handler, ok := registry[name]
	return handler, ok
}

// RegisteredNames lists every known task name
func RegisteredNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
