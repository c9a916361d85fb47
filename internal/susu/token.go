package susu

// Token describes a supported contribution asset.
type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

// DefaultTokens is the catalog used when none is configured: the Celo
// stablecoins the circles were originally denominated in.
func DefaultTokens() []Token {
	return []Token{
		{
			Address:  "0x765de816845861e75a25fca122bb6898b8b1282a",
			Symbol:   "cUSD",
			Name:     "Celo Dollar",
			Decimals: 18,
		},
		{
			Address:  "0xd8763cba276a3738e6de85b4b3bf5fded6d6ca73",
			Symbol:   "cEUR",
			Name:     "Celo Euro",
			Decimals: 18,
		},
	}
}
