package reviewseed_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/reviewseed/pkg/reviewseed"
)

func validLoadConfig() reviewseed.LoadConfig {
	return reviewseed.LoadConfig{
		Connection:  &reviewseed.ConnectionConfig{Driver: reviewseed.DriverPostgres},
		BankName:    reviewseed.DefaultBankName,
		Count:       10,
		BatchSize:   1,
		Descriptors: reviewseed.DescriptorMatched,
		Timeout:     time.Minute,
	}
}

func TestLoadConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*reviewseed.LoadConfig)
		wantErr bool
	}{
		{"valid", func(*reviewseed.LoadConfig) {}, false},
		{"zero count allowed", func(c *reviewseed.LoadConfig) { c.Count = 0 }, false},
		{"negative count", func(c *reviewseed.LoadConfig) { c.Count = -1 }, true},
		{"missing bank", func(c *reviewseed.LoadConfig) { c.BankName = "" }, true},
		{"missing connection", func(c *reviewseed.LoadConfig) { c.Connection = nil }, true},
		{"zero batch size", func(c *reviewseed.LoadConfig) { c.BatchSize = 0 }, true},
		{"unknown descriptors", func(c *reviewseed.LoadConfig) { c.Descriptors = "random" }, true},
		{"negative timeout", func(c *reviewseed.LoadConfig) { c.Timeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validLoadConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, reviewseed.ErrInvalidConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := reviewseed.LoadConfig{Count: -5}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection is required")
	assert.Contains(t, err.Error(), "bank name is required")
	assert.Contains(t, err.Error(), "count cannot be negative")
}

func TestReview_ParsedDate(t *testing.T) {
	d, err := reviewseed.Review{Date: "2024-02-29"}.ParsedDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	_, err = reviewseed.Review{Date: "29/02/2024"}.ParsedDate()
	assert.Error(t, err)
}

func TestSentiment_IsValid(t *testing.T) {
	for _, s := range reviewseed.Sentiments {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, reviewseed.Sentiment("positive").IsValid())
	assert.False(t, reviewseed.Sentiment("").IsValid())
}

func TestDriver_DefaultPort(t *testing.T) {
	assert.Equal(t, 5432, reviewseed.DriverPostgres.DefaultPort())
	assert.Equal(t, 3306, reviewseed.DriverMySQL.DefaultPort())
	assert.False(t, reviewseed.Driver("oracle").IsValid())
}

func TestAuthMethod_String(t *testing.T) {
	assert.Equal(t, "Standard", reviewseed.AuthMethodStandard.String())
	assert.Equal(t, "Azure Entra ID", reviewseed.AuthMethodAzureEntraID.String())
	assert.Equal(t, "Unknown(42)", reviewseed.AuthMethod(42).String())
}
