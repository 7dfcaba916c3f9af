package utils

import "strings"

// exchangeSuffixes maps Yahoo Finance suffixes to exchange names.
var exchangeSuffixes = map[string]string{
	".NS": "NSE",
	".BO": "BSE",
}

// CleanQuery trims a user-typed query and collapses inner runs of
// whitespace. Case is preserved since company names are accepted as-is.
func CleanQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

// SplitSymbol splits an engine ticker such as "RELIANCE.NS" into its bare
// symbol and exchange. Tickers without a known suffix default to NSE.
func SplitSymbol(ticker string) (symbol, exchange string) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	for suffix, ex := range exchangeSuffixes {
		if strings.HasSuffix(t, suffix) {
			return strings.TrimSuffix(t, suffix), ex
		}
	}
	return t, "NSE"
}
