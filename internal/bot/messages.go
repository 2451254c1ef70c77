package bot

// User facing reply texts.
const (
	msgHelp = "Hi! I keep your task list.\n" +
		"To add a task:\n" +
		"- just send any text, or\n" +
		"- use /add <text>\n" +
		"/list - show tasks\n" +
		"/done <number> - mark a task as done\n" +
		"/delete <number> - delete a task\n" +
		"/export - export tasks to CSV\n" +
		"/clear_all - delete all tasks\n" +
		"/done_all - mark all tasks as done"

	msgUnknownCommand = "Unknown command.\n" +
		"/start - help\n" +
		"/list - show tasks\n" +
		"/done <number> - mark a task as done\n" +
		"/delete <number> - delete a task\n" +
		"/export - export to CSV"

	msgEmptyTask       = "Task text cannot be empty."
	msgTaskAdded       = "[✳️] Task #%d added!\nTask: %s"
	msgTaskDone        = "[✅] Task #%d marked as done!"
	msgTaskDeleted     = "[❌] Task #%d deleted!"
	msgTaskNotFound    = "Task not found."
	msgDoneUsage       = "Usage: /done <task number>"
	msgDeleteUsage     = "Usage: /delete <task number>"
	msgAllDeleted      = "[❌] Deleted %d tasks!"
	msgNothingToDelete = "You have no tasks to delete."
	msgAllDone         = "[✅] Marked as done: %d tasks!"
	msgNothingToMark   = "No tasks to mark as done."
	msgNothingToExport = "You have no tasks to export."
	msgExportCaption   = "Your tasks (CSV)"
	msgNoTasks         = "You have no tasks."
	msgTryAgain        = "Something went wrong. Please try again later."
)
