package translate

import "errors"

var errNoJSONObject = errors.New("no JSON object in model output")

// firstJSONObject returns the first balanced {...} span in s. The model is
// asked to return only JSON but may prepend or append prose, so the span is
// located by a bracket-matching scan rather than by trusting the whole
// text. Braces inside JSON strings do not count toward the balance.
func firstJSONObject(s string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if start >= 0 && inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", errNoJSONObject
}
