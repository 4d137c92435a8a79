package chain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ratesFixture = "Representative rates\n" +
	"\n" +
	"SDRs per Currency unit (2)\n" +
	"Currency\tJanuary 02, 2026\tJanuary 03, 2026\n" +
	"Euro\tn.a.\t0.876543\n" +
	"U.S. dollar\t0.755123\t0.754321\n" +
	"Imaginary money\t1.0\t1.0\n" +
	"Japanese yen\t\t0.004821\n" +
	"Currency units per SDR(3)\n" +
	"Euro\t1.140000\t1.141000\n"

func TestParseSDRRates(t *testing.T) {
	rates, err := ParseSDRRates(strings.NewReader(ratesFixture))
	require.NoError(t, err)

	// first populated column wins, "n.a." cells are skipped
	assert.True(t, rates["EUR"].Equal(decimal.RequireFromString("0.876543")))
	assert.True(t, rates["USD"].Equal(decimal.RequireFromString("0.755123")))
	assert.True(t, rates["JPY"].Equal(decimal.RequireFromString("0.004821")))

	// unknown currency names are ignored, and the section terminator stops
	// parsing before the inverse-rate rows
	assert.Len(t, rates, 3)
}

func TestParseSDRRates_EmptyFeed(t *testing.T) {
	_, err := ParseSDRRates(strings.NewReader("nothing useful here\n"))

	assert.ErrorContains(t, err, "no SDR rates found")
}
