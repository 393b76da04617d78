package exitcode

// Process exit codes for rxmargin.
const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2 // catalog unusable or invalid parameters
	DBConnError     = 3
	CopyError       = 4
	ComputeError    = 5
	PartialSuccess  = 6 // completed with one or more sources failing validation
)
