package tasks

import (
	"testing"
	"time"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

func TestArgUint(t *testing.T) {
	args := map[string]interface{}{
		"from_json": float64(42), // numbers arrive as float64 after the JSON round-trip
		"as_int":    7,
		"as_uint":   uint(9),
		"not_a_num": "hello",
	}

	if v, ok := argUint(args, "from_json"); !ok || v != 42 {
		t.Errorf("argUint(from_json) = %d, %v", v, ok)
	}
	if v, ok := argUint(args, "as_int"); !ok || v != 7 {
		t.Errorf("argUint(as_int) = %d, %v", v, ok)
	}
	if v, ok := argUint(args, "as_uint"); !ok || v != 9 {
		t.Errorf("argUint(as_uint) = %d, %v", v, ok)
	}
	if _, ok := argUint(args, "not_a_num"); ok {
		t.Error("argUint(not_a_num) should not succeed")
	}
	if _, ok := argUint(args, "missing"); ok {
		t.Error("argUint(missing) should not succeed")
	}
}

func TestBuildScheduledTask(t *testing.T) {
	due := time.Now().Add(time.Hour)
	task := BuildScheduledTask(TaskLogInfo, map[string]interface{}{"k": "v"}, due)

	if task.TaskType != models.ScheduledTaskTypeOneTime {
		t.Errorf("task type = %s, expected onetime", task.TaskType)
	}
	if task.Status != models.ScheduledTaskStatusActive {
		t.Errorf("status = %s, expected active", task.Status)
	}
	if task.MaxAttempt != defaultMaxAttempt {
		t.Errorf("max attempt = %d, expected %d", task.MaxAttempt, defaultMaxAttempt)
	}
	if !task.Due.Equal(due) {
		t.Errorf("due = %v, expected %v", task.Due, due)
	}
}

func TestBuildRecurringTask(t *testing.T) {
	due := time.Now().Add(time.Hour)
	task := BuildRecurringTask(TaskOverdueInvoiceNotice, nil, due, "FREQ=DAILY")

	if task.TaskType != models.ScheduledTaskTypeRecurring {
		t.Errorf("task type = %s, expected recurring", task.TaskType)
	}
	if task.RecurringInterval == nil || *task.RecurringInterval != "FREQ=DAILY" {
		t.Error("recurring interval not stored")
	}
}

func TestRegistryKnowsAllDefinitions(t *testing.T) {
	for _, name := range []string{TaskLogInfo, TaskSendNotification, TaskAppointmentReminder, TaskOverdueInvoiceNotice} {
		if _, ok := Get(name); !ok {
			t.Errorf("no handler registered for %q", name)
		}
	}
}
