package tasks

// Task names as stored in scheduled_tasks.task_name
const (
	TaskLogInfo              = "log_info"
	TaskSendNotification     = "send_notification"
	TaskAppointmentReminder  = "appointment_reminder"
	TaskOverdueInvoiceNotice = "overdue_invoice_notice"
)

func init() {
	Register(TaskLogInfo, handleLogInfo)
	Register(TaskSendNotification, handleSendNotification)
	Register(TaskAppointmentReminder, handleAppointmentReminder)
	Register(TaskOverdueInvoiceNotice, handleOverdueInvoiceNotice)
}
