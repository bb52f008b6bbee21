package tasks

import (
	"time"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

const defaultMaxAttempt = 3

// BuildScheduledTask assembles a one-time task due at the given moment
func BuildScheduledTask(name string, args map[string]interface{}, due time.Time) models.ScheduledTask {
	return models.ScheduledTask{
		TaskName:   name,
		Arguments:  args,
		Due:        due,
		Status:     models.ScheduledTaskStatusActive,
		TaskType:   models.ScheduledTaskTypeOneTime,
		MaxAttempt: defaultMaxAttempt,
	}
}

// BuildRecurringTask assembles a task that reschedules itself along the given
// RRULE after each run
func BuildRecurringTask(name string, args map[string]interface{}, firstDue time.Time, rule string) models.ScheduledTask {
	return models.ScheduledTask{
		TaskName:          name,
		Arguments:         args,
		Due:               firstDue,
		RecurringInterval: &rule,
		Status:            models.ScheduledTaskStatusActive,
		TaskType:          models.ScheduledTaskTypeRecurring,
		MaxAttempt:        defaultMaxAttempt,
	}
}

// argUint reads a numeric argument. Task arguments round-trip through the
// JSON serializer, so numbers come back as float64.
func argUint(args map[string]interface{}, key string) (uint, bool) {
	val, ok := args[key]
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return uint(v), true
	case int:
		return uint(v), true
	case uint:
		return v, true
	}
	return 0, false
}

func argString(args map[string]interface{}, key string) string {
	val, _ := args[key].(string)
	return val
}
