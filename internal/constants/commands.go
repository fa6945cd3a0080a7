package constants

// Bot commands, without the leading slash.
const (
	CommandStart  = "start"
	CommandHelp   = "help"
	CommandStatus = "status"
	CommandSet    = "set"
	CommandJobs   = "jobs"
	CommandCancel = "cancel"
	CommandReset  = "reset"
)
