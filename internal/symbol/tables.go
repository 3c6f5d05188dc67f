package symbol

// weeklyRoots maps weekly-series underlyings to the symbol the feed quotes them under.
// Entries are explicit; similarly shaped tickers are not rewritten.
var weeklyRoots = map[string]string{
	"SPXW": "SPX",
}

// futuresExchanges maps a futures root to the MIC the feed appends to futures-option quote symbols.
var futuresExchanges = map[string]string{
	// CBOT
	"/ZB": "XCBT",
	"/ZN": "XCBT",
	"/ZF": "XCBT",
	"/ZT": "XCBT",
	"/UB": "XCBT",
	"/ZC": "XCBT",
	"/ZS": "XCBT",
	"/ZW": "XCBT",
	"/HE": "XCBT",
	"/YM": "XCBT",

	// CME
	"/GE":  "XCME",
	"/6A":  "XCME",
	"/6B":  "XCME",
	"/6C":  "XCME",
	"/6E":  "XCME",
	"/6J":  "XCME",
	"/6M":  "XCME",
	"/ES":  "XCME",
	"/NQ":  "XCME",
	"/RTY": "XCME",
	"/BTC": "XCME",

	// NYMEX
	"/CL": "XNYM",
	"/NG": "XNYM",

	// COMEX
	"/GC": "XCEC",
	"/SI": "XCEC",
	"/HG": "XCEC",

	// CFE
	"/VX":  "XCBF",
	"/VXM": "XCBF",
}

// Exchange returns the exchange code for a futures root such as "/ES".
func Exchange(root string) (string, bool) {
	ex, ok := futuresExchanges[root]
	return ex, ok
}

// Weekly returns the quoted underlying for a weekly-series root, or the root itself.
func Weekly(root string) string {
	if mapped, ok := weeklyRoots[root]; ok {
		return mapped
	}
	return root
}
