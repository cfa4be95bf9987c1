package main

// Exit codes shared by all commands.
const (
	ExitSuccess      = 0 // Success
	ExitError        = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError  = 2 // Configuration error (missing paths, bad config file)
	ExitDataError    = 3 // Data error (malformed bibliography or member file)
	ExitNetworkError = 4 // PubMed unreachable or rejecting requests
)
