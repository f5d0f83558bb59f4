package isbn

import "strings"

// bookland is the EAN prefix prepended when converting ISBN-10 input.
const bookland = "978"

// Normalize strips formatting and returns the canonical ISBN-13 for raw.
// ISBN-13 input is returned as-is, ISBN-10 input (including an X check
// digit) is converted. The second return value is false when raw does not
// contain a usable identifier.
func Normalize(raw string) (string, bool) {
	cleaned := strip(raw)

	switch len(cleaned) {
	case 13:
		if !allDigits(cleaned) {
			return "", false
		}
		return cleaned, true
	case 10:
		return convert10(cleaned)
	default:
		return "", false
	}
}

// Valid reports whether raw normalizes to a canonical identifier.
func Valid(raw string) bool {
	_, ok := Normalize(raw)
	return ok
}

// convert10 turns a cleaned 10-character ISBN-10 into ISBN-13: bookland
// prefix plus the first nine digits, with a freshly computed check digit.
func convert10(cleaned string) (string, bool) {
	body := cleaned[:9]
	if !allDigits(body) {
		return "", false
	}
	check := cleaned[9]
	if !(check >= '0' && check <= '9') && check != 'X' && check != 'x' {
		return "", false
	}

	base := bookland + body
	sum := 0
	for i := 0; i < len(base); i++ {
		digit := int(base[i] - '0')
		if i%2 == 0 {
			sum += digit
		} else {
			sum += digit * 3
		}
	}
	checkDigit := (10 - sum%10) % 10
	return base + string(rune('0'+checkDigit)), true
}

func strip(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case ' ', '-', '_', '.', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
