package reviewseed

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Load completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitInsertFailed    = 13 // A review row could not be inserted
	ExitBankNotFound    = 15 // Bank name has no row in the banks table
)

const (
	// DefaultBankName is the bank the sample reviews are generated for.
	DefaultBankName = "Commercial Bank of Ethiopia"

	// DefaultReviewCount is the number of reviews generated when no count is given.
	DefaultReviewCount = 1000

	// DefaultBatchSize of 1 means one round trip per review.
	DefaultBatchSize = 1

	// MaxReviewAgeDays bounds how far in the past a review date may fall.
	MaxReviewAgeDays = 365

	// ReviewDateLayout is the ISO calendar date format used for review dates.
	ReviewDateLayout = "2006-01-02"

	// DefaultTimeout is the catastrophic-failure timeout for a whole load.
	DefaultTimeout = 5 * time.Minute

	// DefaultPostgresPort and DefaultMySQLPort are used when no port is configured.
	DefaultPostgresPort = 5432
	DefaultMySQLPort    = 3306

	// MaxErrorPreviewLength caps how much of a review text is echoed in error messages.
	MaxErrorPreviewLength = 80
)
