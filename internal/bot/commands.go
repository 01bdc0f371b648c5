package bot

// Commands understood by the bot.
const (
	CommandStart        = "/start"
	CommandMenu         = "/menu"
	CommandCancel       = "/cancel"
	CommandMyID         = "/myid"
	CommandBudget       = "/budget"
	CommandReset        = "/reset"
	CommandTestReminder = "/testreminder"
)
