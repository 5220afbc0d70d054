package feed

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validFeed() *TransferFeed {
	return &TransferFeed{
		Name:           "Acme Solar Leads",
		Status:         FeedStatusActive,
		Method:         "POST",
		EndpointURL:    "https://partner.example.com/leads",
		BodyEncoding:   BodyEncodingJSON,
		SuccessPattern: "approved",
		PayoutType:     PayoutTypeStatic,
		PayoutValue:    decimal.NewFromFloat(45),
	}
}

func TestTransferFeed_Validate(t *testing.T) {
	t.Run("Valid feed", func(t *testing.T) {
		assert.NoError(t, validFeed().Validate())
	})

	t.Run("Empty name", func(t *testing.T) {
		f := validFeed()
		f.Name = "  "
		assert.ErrorIs(t, f.Validate(), ErrFeedInvalidName)
	})

	t.Run("Empty endpoint", func(t *testing.T) {
		f := validFeed()
		f.EndpointURL = ""
		assert.ErrorIs(t, f.Validate(), ErrFeedInvalidURL)
	})

	t.Run("Unsupported method", func(t *testing.T) {
		f := validFeed()
		f.Method = "DELETE"
		assert.ErrorIs(t, f.Validate(), ErrFeedInvalidMethod)
	})

	t.Run("Unknown encoding", func(t *testing.T) {
		f := validFeed()
		f.BodyEncoding = "xml"
		assert.ErrorIs(t, f.Validate(), ErrFeedInvalidEncoding)
	})

	t.Run("Dynamic payout requires path", func(t *testing.T) {
		f := validFeed()
		f.PayoutType = PayoutTypeDynamic
		f.PayoutPath = ""
		assert.ErrorIs(t, f.Validate(), ErrFeedInvalidPayout)

		f.PayoutPath = "data.amount"
		assert.NoError(t, f.Validate())
	})

	t.Run("Invalid status", func(t *testing.T) {
		f := validFeed()
		f.Status = "PAUSED"
		assert.ErrorIs(t, f.Validate(), ErrFeedInvalidStatus)
	})
}

func TestTransferFeed_PrePingEnabled(t *testing.T) {
	f := validFeed()
	assert.False(t, f.PrePingEnabled())

	f.PrePing = &PrePingConfig{Enabled: false}
	assert.False(t, f.PrePingEnabled())

	f.PrePing.Enabled = true
	assert.True(t, f.PrePingEnabled())
}

func TestPrePingConfig_IDExtractionPath(t *testing.T) {
	t.Run("Configured idPath wins", func(t *testing.T) {
		p := &PrePingConfig{IDPath: "result.token"}
		assert.Equal(t, "result.token", p.IDExtractionPath())
	})

	t.Run("Legacy default when unset", func(t *testing.T) {
		p := &PrePingConfig{}
		assert.Equal(t, "response.data.uuid", p.IDExtractionPath())
	})
}

func TestPatternCache(t *testing.T) {
	c := NewPatternCache()

	t.Run("Compiles and caches", func(t *testing.T) {
		re1, err := c.Get(`^ok$`)
		assert.NoError(t, err)
		re2, err := c.Get(`^ok$`)
		assert.NoError(t, err)
		assert.Same(t, re1, re2)
	})

	t.Run("Caches compile failures", func(t *testing.T) {
		_, err1 := c.Get(`([`)
		assert.Error(t, err1)
		_, err2 := c.Get(`([`)
		assert.Equal(t, err1, err2)
	})
}
