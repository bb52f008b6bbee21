package tasks

import (
	"context"
	"log"

	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

// handleLogInfo logs its arguments. Used to verify the worker loop end to end.
func handleLogInfo(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	log.Printf("log_info task %d: %v", task.ID, task.Arguments)
	return map[string]interface{}{"logged": true}, nil
}
