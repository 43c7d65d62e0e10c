// Package rut normalises, formats and validates Chilean RUT numbers.
package rut

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalid is returned for values that are not a well formed RUT with a
// matching check digit.
var ErrInvalid = errors.New("rut: invalid")

// Normalize strips dots, dashes and whitespace and upper-cases the check digit.
func Normalize(raw string) string {
	replacer := strings.NewReplacer(".", "", "-", "", " ", "")
	return strings.ToUpper(replacer.Replace(strings.TrimSpace(raw)))
}

// Split returns the body and check digit of a normalised value.
func Split(raw string) (body, dv string) {
	clean := Normalize(raw)
	if len(clean) < 2 {
		return clean, ""
	}
	return clean[:len(clean)-1], clean[len(clean)-1:]
}

// Format renders the value as "12.345.678-5". Values of one character or less
// are returned normalised but otherwise untouched.
func Format(raw string) string {
	clean := Normalize(raw)
	if len(clean) <= 1 {
		return clean
	}
	body, dv := clean[:len(clean)-1], clean[len(clean)-1:]
	return groupThousands(body) + "-" + dv
}

// CheckDigit computes the modulo 11 check digit of a numeric body.
func CheckDigit(body string) (string, error) {
	if body == "" {
		return "", ErrInvalid
	}
	sum, factor := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		d := body[i]
		if d < '0' || d > '9' {
			return "", ErrInvalid
		}
		sum += int(d-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch expected := 11 - sum%11; expected {
	case 11:
		return "0", nil
	case 10:
		return "K", nil
	default:
		return strconv.Itoa(expected), nil
	}
}

// Validate checks that the body has at least seven digits and that the check
// digit matches.
func Validate(raw string) error {
	body, dv := Split(raw)
	if len(body) < 7 || dv == "" {
		return ErrInvalid
	}
	want, err := CheckDigit(body)
	if err != nil {
		return err
	}
	if dv != want {
		return ErrInvalid
	}
	return nil
}

// Valid reports whether Validate succeeds.
func Valid(raw string) bool {
	return Validate(raw) == nil
}

func groupThousands(body string) string {
	if len(body) <= 3 {
		return body
	}
	var b strings.Builder
	lead := len(body) % 3
	if lead > 0 {
		b.WriteString(body[:lead])
	}
	for i := lead; i < len(body); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(body[i : i+3])
	}
	return b.String()
}
