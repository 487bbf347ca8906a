package security

import "errors"

const MinPasswordLength = 8

var ErrWeakPassword = errors.New("weak password: min 8 chars and must include at least one letter and one number")

func CheckPasswordPolicy(pw string) error {
	if len(pw) < MinPasswordLength {
		return ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, c := range pw {
		switch {
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			hasLetter = true
		case c >= '0' && c <= '9':
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}
