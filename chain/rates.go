package chain

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IMFRatesURL is the IMF representative exchange rates feed, in TSV form
const IMFRatesURL = "https://www.imf.org/external/np/fin/data/rms_five.aspx?tsvflag=Y"

// RateSource supplies "SDRs per currency unit" exchange rates keyed by ISO code
type RateSource interface {
	SDRRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// currencyToISO maps the currency names used in the IMF feed to ISO codes
var currencyToISO = map[string]string{
	"Chinese yuan":        "CNY",
	"Euro":                "EUR",
	"Japanese yen":        "JPY",
	"U.K. pound":          "GBP",
	"U.S. dollar":         "USD",
	"Algerian dinar":      "DZD",
	"Australian dollar":   "AUD",
	"Botswana pula":       "BWP",
	"Brazilian real":      "BRL",
	"Brunei dollar":       "BND",
	"Canadian dollar":     "CAD",
	"Chilean peso":        "CLP",
	"Czech koruna":        "CZK",
	"Danish krone":        "DKK",
	"Indian rupee":        "INR",
	"Israeli New Shekel":  "ILS",
	"Korean won":          "KRW",
	"Kuwaiti dinar":       "KWD",
	"Malaysian ringgit":   "MYR",
	"Mauritian rupee":     "MUR",
	"Mexican peso":        "MXN",
	"New Zealand dollar":  "NZD",
	"Norwegian krone":     "NOK",
	"Omani rial":          "OMR",
	"Peruvian sol":        "PEN",
	"Philippine peso":     "PHP",
	"Polish zloty":        "PLN",
	"Qatari riyal":        "QAR",
	"Russian ruble":       "RUB",
	"Saudi Arabian riyal": "SAR",
	"Singapore dollar":    "SGD",
	"South African rand":  "ZAR",
	"Swedish krona":       "SEK",
	"Swiss franc":         "CHF",
	"Thai baht":           "THB",
	"Trinidadian dollar":  "TTD",
	"U.A.E. dirham":       "AED",
	"Uruguayan peso":      "UYU",
}

// IMFRateSource downloads SDR exchange rates from the IMF feed
type IMFRateSource struct {
	client *http.Client
	url    string
}

// NewIMFRateSource creates a rate source against the public IMF feed
func NewIMFRateSource() *IMFRateSource {
	return &IMFRateSource{
		client: &http.Client{Timeout: 30 * time.Second},
		url:    IMFRatesURL,
	}
}

// NewIMFRateSourceWithURL creates a rate source against a custom feed URL
func NewIMFRateSourceWithURL(url string) *IMFRateSource {
	src := NewIMFRateSource()
	src.url = url

	return src
}

// SDRRates downloads and parses the feed into an ISO code -> rate map
func (s *IMFRateSource) SDRRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download IMF rate data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from IMF rate feed", resp.StatusCode)
	}

	return ParseSDRRates(resp.Body)
}

// ParseSDRRates extracts the "SDRs per Currency unit" section of the IMF
// TSV feed. Each currency row carries one column per recent date; the first
// populated column is taken as the current rate
func ParseSDRRates(r io.Reader) (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal)

	scanner := bufio.NewScanner(r)
	inSection := false

	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Split(line, "\t")

		if len(fields) == 0 || fields[0] == "" {
			continue
		}

		if strings.HasPrefix(fields[0], "SDRs per Currency unit") {
			inSection = true

			continue
		}

		if !inSection {
			continue
		}

		if strings.HasPrefix(fields[0], "Currency units per SDR") {
			break
		}

		if fields[0] == "Currency" {
			continue
		}

		iso, known := currencyToISO[strings.TrimSpace(fields[0])]
		if !known {
			continue
		}

		for _, cell := range fields[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" || cell == "n.a." {
				continue
			}

			rate, err := decimal.NewFromString(cell)
			if err != nil {
				continue
			}

			rates[iso] = rate

			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read IMF rate data: %w", err)
	}

	if len(rates) == 0 {
		return nil, fmt.Errorf("no SDR rates found in feed")
	}

	return rates, nil
}
