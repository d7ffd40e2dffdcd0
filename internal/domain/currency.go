package domain

type Currency string

const (
	CurrencyMGA Currency = "MGA"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyMGA, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}
