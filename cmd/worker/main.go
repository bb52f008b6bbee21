package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/tasks"
)

const pollInterval = 5 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := services.InitDB(dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down worker...")
		cancel()
	}()

	log.Printf("Worker started, handlers: %v", tasks.RegisteredNames())

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	// Run once on startup so a restart doesn't delay overdue tasks
	runDueTasks(ctx, db)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runDueTasks(ctx, db)
		}
	}
}

// runDueTasks claims and executes every active task whose due time has passed
func runDueTasks(ctx context.Context, db *gorm.DB) {
	var due []models.ScheduledTask
	err := db.WithContext(ctx).
		Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, time.Now()).
		Order("due asc").
		Find(&due).Error
	if err != nil {
		log.Printf("Failed to query due tasks: %v", err)
		return
	}

	for _, task := range due {
		if ctx.Err() != nil {
			return
		}
		executeTask(ctx, db, task)
	}
}

func executeTask(ctx context.Context, db *gorm.DB, task models.ScheduledTask) {
	handler, ok := tasks.Get(task.TaskName)
	if !ok {
		log.Printf("No handler for task %q (id %d), disabling", task.TaskName, task.ID)
		db.Model(&task).Update("status", models.ScheduledTaskStatusDisabled)
		return
	}

	attempt := previousAttempts(db, task.ID) + 1
	started := time.Now()
	result, err := handler(ctx, db, task)
	runtime := int(time.Since(started).Milliseconds())

	history := models.ScheduledTaskHistory{
		ScheduledTaskID: task.ID,
		TaskName:        task.TaskName,
		RunAt:           started,
		Runtime:         runtime,
		AttemptNumber:   attempt,
		Arguments:       task.Arguments,
		Result:          result,
	}

	if err != nil {
		log.Printf("Task %q (id %d) attempt %d failed: %v", task.TaskName, task.ID, attempt, err)
		history.Status = "failure"
		if history.Result == nil {
			history.Result = map[string]interface{}{}
		}
		history.Result["error"] = err.Error()
		db.Create(&history)

		maxAttempt := task.MaxAttempt
		if maxAttempt <= 0 {
			maxAttempt = 1
		}
		if attempt >= maxAttempt {
			db.Model(&task).Update("status", models.ScheduledTaskStatusFailure)
		}
		return
	}

	history.Status = "success"
	db.Create(&history)

	now := time.Now()
	updates := map[string]interface{}{"last_run": &now}
	if task.TaskType == models.ScheduledTaskTypeRecurring {
		next := task.NextDue()
		if next.After(now) {
			updates["due"] = next
		} else {
			updates["status"] = models.ScheduledTaskStatusDone
		}
	} else {
		updates["status"] = models.ScheduledTaskStatusDone
	}
	if err := db.Model(&task).Updates(updates).Error; err != nil {
		log.Printf("Failed to update task %d after run: %v", task.ID, err)
	}
}

// previousAttempts counts earlier failed runs so retries stop at MaxAttempt
func previousAttempts(db *gorm.DB, taskID uint) int {
	var count int64
	db.Model(&models.ScheduledTaskHistory{}).
		Where("scheduled_task_id = ? AND status = ?", taskID, "failure").
		Count(&count)
	return int(count)
}
