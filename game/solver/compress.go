package solver

// Compress merges each run of consecutive tokens with the same label and
// direction into one token carrying the summed step count. Recurrences
// separated by any other token stay separate.
func Compress(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if n := len(out); n > 0 && out[n-1].Label == t.Label && out[n-1].Direction == t.Direction {
			out[n-1].Steps += t.Steps
			continue
		}
		out = append(out, t)
	}
	return out
}

// Expand splits every token into single-cell slides.
func Expand(tokens []Token) []Token {
	var out []Token
	for _, t := range tokens {
		for i := 0; i < t.Steps; i++ {
			out = append(out, Token{Label: t.Label, Direction: t.Direction, Steps: 1})
		}
	}
	return out
}
