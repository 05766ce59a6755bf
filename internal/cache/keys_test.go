package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "price:1:SKU-9", PriceKey("1", "SKU-9"))
	assert.Equal(t, "suggestion:job-123", SuggestionKey("job-123"))
}
