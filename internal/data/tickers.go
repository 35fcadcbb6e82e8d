package data

// PopularTickers lists commonly backtested symbols with descriptions, for
// presentation layers to offer as defaults.
func PopularTickers() map[string]string {
	return map[string]string{
		"^GSPC": "S&P 500 Index",
		"^DJI":  "Dow Jones Industrial Average",
		"^IXIC": "NASDAQ Composite",
		"^RUT":  "Russell 2000 Index",
		"SPY":   "SPDR S&P 500 ETF",
		"QQQ":   "Invesco QQQ Trust",
		"IWM":   "iShares Russell 2000 ETF",
		"VTI":   "Vanguard Total Stock Market ETF",
		"VOO":   "Vanguard S&P 500 ETF",
		"AAPL":  "Apple Inc.",
		"MSFT":  "Microsoft Corporation",
		"GOOGL": "Alphabet Inc.",
		"AMZN":  "Amazon.com Inc.",
		"TSLA":  "Tesla Inc.",
		"NVDA":  "NVIDIA Corporation",
		"META":  "Meta Platforms Inc.",
		"BRK-B": "Berkshire Hathaway Inc.",
		"JNJ":   "Johnson & Johnson",
		"JPM":   "JPMorgan Chase & Co.",
		"V":     "Visa Inc.",
	}
}

// alternativeTickers maps index symbols that frequently hit upstream rate
// limits to tradable proxies. Static mapping, not computed.
var alternativeTickers = map[string][]string{
	"^GSPC": {"SPY", "VOO", "IVV"},
	"^DJI":  {"DIA"},
	"^IXIC": {"QQQ"},
	"^RUT":  {"IWM"},
}

// AlternativeTickers suggests proxies for a commonly rate-limited symbol.
// Returns nil when no suggestion exists.
func AlternativeTickers(symbol string) []string {
	return alternativeTickers[symbol]
}

// AllAlternativeTickers returns the full proxy mapping.
func AllAlternativeTickers() map[string][]string {
	out := make(map[string][]string, len(alternativeTickers))
	for k, v := range alternativeTickers {
		out[k] = append([]string(nil), v...)
	}
	return out
}
