package defaults

// Exit codes for the server binary.
const (
	ExitSuccess       = 0 // Clean shutdown
	ExitUserError     = 2 // Invalid arguments or configuration
	ExitNetworkError  = 3 // Listener/bind failure
	ExitInternalError = 4 // Unexpected internal error
)
