// Command schedule_task inserts a scheduled task from the command line.
// Used to seed recurring maintenance jobs, e.g. the nightly overdue notice:
//
//	schedule_task -name overdue_invoice_notice -due 2025-01-01T08:00:00Z \
//	    -rrule "FREQ=DAILY"
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/tasks"
)

func main() {
	name := flag.String("name", "", "task name (required)")
	due := flag.String("due", "", "due time in RFC3339, defaults to now")
	rule := flag.String("rrule", "", "RRULE for recurring tasks, empty for one-time")
	args := flag.String("args", "{}", "task arguments as JSON")
	flag.Parse()

	if *name == "" {
		flag.Usage()
		os.Exit(2)
	}
	if _, ok := tasks.Get(*name); !ok {
		log.Fatalf("Unknown task %q, known tasks: %v", *name, tasks.RegisteredNames())
	}

	dueAt := time.Now()
	if *due != "" {
		var err error
		dueAt, err = time.Parse(time.RFC3339, *due)
		if err != nil {
			log.Fatalf("Invalid -due value: %v", err)
		}
	}

	var arguments map[string]interface{}
	if err := json.Unmarshal([]byte(*args), &arguments); err != nil {
		log.Fatalf("Invalid -args JSON: %v", err)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := services.InitDB(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	task := tasks.BuildScheduledTask(*name, arguments, dueAt)
	if *rule != "" {
		task = tasks.BuildRecurringTask(*name, arguments, dueAt, *rule)
	}

	if err := db.Create(&task).Error; err != nil {
		log.Fatalf("Failed to create task: %v", err)
	}
	log.Printf("Created task %d (%s) due %s", task.ID, task.TaskName, task.Due.Format(time.RFC3339))
}
