package models

// SymbolFor derives the ticker symbol for a record ID. The mapping is pure,
// so the feed and the board agree on the symbol universe for a given
// collection size without talking to each other.
func SymbolFor(id int64) string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	var b [4]byte
	n := id
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = letters[n%26]
		n /= 26
	}
	return string(b[:])
}

// CompanyFor derives a display name to pair with SymbolFor(id).
func CompanyFor(id int64) string {
	suffixes := []string{"Corp", "Inc", "Group", "Holdings", "Industries", "Labs"}
	return SymbolFor(id) + " " + suffixes[id%int64(len(suffixes))]
}

// UniverseSymbols lists the symbols for a collection of n records, in ID order.
func UniverseSymbols(n int) []string {
	symbols := make([]string, n)
	for i := range symbols {
		symbols[i] = SymbolFor(int64(i))
	}
	return symbols
}
