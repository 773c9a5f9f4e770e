package reviewseed

import (
	"errors"
	"fmt"
	"time"
)

// Sentiment is the label stored with each review.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// Sentiments lists every valid label in a stable order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral}

// IsValid returns true if s is one of the three defined labels.
func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Review is a generated sample review, not yet persisted.
type Review struct {
	BankName  string    `json:"bank_name" yaml:"bank_name"`
	Text      string    `json:"review_text" yaml:"review_text"`
	Sentiment Sentiment `json:"sentiment" yaml:"sentiment"`
	// Date is an ISO calendar date (ReviewDateLayout); it is parsed at insert time.
	Date string `json:"review_date" yaml:"review_date"`
}

// ParsedDate parses Date as a calendar date at midnight UTC.
func (r Review) ParsedDate() (time.Time, error) {
	t, err := time.Parse(ReviewDateLayout, r.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid review date %q: %w", r.Date, err)
	}
	return t, nil
}

// DescriptorMode controls how the word embedded in the review text relates
// to the stored sentiment.
type DescriptorMode string

const (
	// DescriptorMatched derives the word from the stored sentiment.
	DescriptorMatched DescriptorMode = "matched"
	// DescriptorIndependent draws the word separately from the sentiment,
	// so text and label may disagree.
	DescriptorIndependent DescriptorMode = "independent"
)

// IsValid returns true if m is a known mode.
func (m DescriptorMode) IsValid() bool {
	return m == DescriptorMatched || m == DescriptorIndependent
}

// Driver selects the database client used for a load.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// IsValid returns true if d is a supported driver.
func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverMySQL
}

// DefaultPort returns the conventional server port for the driver.
func (d Driver) DefaultPort() int {
	if d == DriverMySQL {
		return DefaultMySQLPort
	}
	return DefaultPostgresPort
}

// LoadConfig contains all parameters needed for a load operation.
type LoadConfig struct {
	// Connection is the resolved target database.
	Connection *ConnectionConfig

	// BankName is matched exactly against banks.bank_name.
	BankName string

	// Count is the number of reviews to generate. Zero is allowed.
	Count int

	// BatchSize above 1 groups inserts into batches of that size.
	BatchSize int

	// Descriptors selects how review text relates to sentiment.
	Descriptors DescriptorMode

	// Timeout is the global timeout for the entire load.
	Timeout time.Duration

	// OnProgress, if set, is called after every inserted review.
	OnProgress func(done, total int)
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if c.Connection == nil {
		errs = append(errs, fmt.Errorf("connection is required: %w", ErrInvalidConfig))
	}
	if c.BankName == "" {
		errs = append(errs, fmt.Errorf("bank name is required: %w", ErrInvalidConfig))
	}
	if c.Count < 0 {
		errs = append(errs, fmt.Errorf("count cannot be negative (got %d): %w", c.Count, ErrInvalidConfig))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch size must be at least 1 (got %d): %w", c.BatchSize, ErrInvalidConfig))
	}
	if !c.Descriptors.IsValid() {
		errs = append(errs, fmt.Errorf("unknown descriptor mode %q: %w", c.Descriptors, ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// LoadResult reports the outcome of a successful load.
type LoadResult struct {
	RunID       string
	BankID      int64
	Generated   int
	Inserted    int
	CountBefore int64
	CountAfter  int64
	Elapsed     time.Duration
}

// CountConfig selects what the count operation reports.
type CountConfig struct {
	Connection *ConnectionConfig

	// BankName, if set, adds a per-bank count.
	BankName string
}

// CountResult holds the reviews row count, and the bank's share when a bank
// was requested.
type CountResult struct {
	Total     int64
	BankName  string
	BankID    int64
	BankTotal int64
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Driver   Driver
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID).
	// If all three are provided, Service Principal authentication is used,
	// otherwise the DefaultAzureCredential chain.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is required for AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance (project:region:instance) for AuthMethodGoogleIAM.
	GoogleInstance string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS RDS IAM token
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Entra ID token
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}
