package badge

// widths of printable ascii in Verdana 11px, index is rune-32
var verdana11 = [...]float64{
	3.87, 4.33, 5.05, 9.0, 6.99, 11.84, 7.99, 2.95, 4.99, 4.99, 6.99, 9.0, 4.0, 4.99, 4.0, 4.99, // ' '..'/'
	6.99, 6.99, 6.99, 6.99, 6.99, 6.99, 6.99, 6.99, 6.99, 6.99, 4.99, 4.99, 9.0, 9.0, 9.0, 6.0, // '0'..'?'
	11.0, 7.52, 7.54, 7.68, 8.48, 6.96, 6.32, 8.53, 8.27, 4.62, 4.99, 7.62, 6.12, 9.27, 8.23, 8.66, // '@'..'O'
	6.63, 8.66, 7.64, 7.52, 6.78, 8.05, 7.52, 10.88, 7.54, 6.77, 7.54, 4.99, 4.99, 4.99, 9.0, 6.99, // 'P'..'_'
	6.99, 6.61, 6.85, 5.73, 6.85, 6.55, 3.87, 6.85, 6.96, 3.02, 3.79, 6.51, 3.02, 10.71, 6.96, 6.68, // '`'..'o'
	6.85, 6.85, 4.69, 5.73, 4.33, 6.96, 6.51, 9.0, 6.51, 6.51, 5.78, 6.98, 4.99, 6.98, 9.0, // 'p'..'~'
}

// fallback for runes outside printable ascii
const wideRune = 7.5

// measure estimates the rendered width of s in Verdana at 11px
func measure(s string) float64 {
	var w float64
	for _, r := range s {
		if r >= 32 && int(r-32) < len(verdana11) {
			w += verdana11[r-32]
			continue
		}
		w += wideRune
	}
	return w
}
