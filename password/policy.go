package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

const defaultGeneratedLength = 12

// Policy enumerates the password strength rules. Each rule toggles
// independently; the zero value disables everything, so callers should
// start from [DefaultPolicy].
type Policy struct {
	MinLength           int
	RequireUppercase    bool
	RequireLowercase    bool
	RequireNumbers      bool
	RequireSpecialChars bool
}

// DefaultPolicy returns the stock rules: at least 8 characters with
// upper case, lower case, and a number required. Special characters are
// not required by default.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumbers:   true,
	}
}

// Validate checks candidate against the policy. It short-circuits on
// the first unmet rule and the returned error names that rule.
func (p Policy) Validate(candidate string) error {
	if candidate == "" {
		return errors.New("password is required")
	}
	if p.MinLength > 0 && len(candidate) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters", p.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}

	if p.RequireUppercase && !hasUpper {
		return errors.New("password must contain an uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		return errors.New("password must contain a lowercase letter")
	}
	if p.RequireNumbers && !hasNumber {
		return errors.New("password must contain a number")
	}
	if p.RequireSpecialChars && !hasSpecial {
		return errors.New("password must contain a special character")
	}

	return nil
}

const (
	upperChars   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerChars   = "abcdefghijkmnpqrstuvwxyz"
	numberChars  = "23456789"
	specialChars = "!@#$%^&*-_=+?"
)

// GenerateRandom produces a random password of the given length that
// satisfies the policy, including at least one character from every
// required class. A length <= 0 selects the default of 12. The result
// always validates under the same policy.
func GenerateRandom(length int, policy Policy) (string, error) {
	if length <= 0 {
		length = defaultGeneratedLength
	}
	if policy.MinLength > length {
		length = policy.MinLength
	}

	var required []string
	if policy.RequireUppercase {
		required = append(required, upperChars)
	}
	if policy.RequireLowercase {
		required = append(required, lowerChars)
	}
	if policy.RequireNumbers {
		required = append(required, numberChars)
	}
	if policy.RequireSpecialChars {
		required = append(required, specialChars)
	}
	if len(required) > length {
		return "", errors.New("length too short for required character classes")
	}

	pool := upperChars + lowerChars + numberChars
	if policy.RequireSpecialChars {
		pool += specialChars
	}

	out := make([]byte, length)
	for i, class := range required {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	for i := len(required); i < length; i++ {
		c, err := randomChar(pool)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	// Shuffle so the required-class characters do not cluster at the
	// front of the password.
	for i := length - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := int(n.Int64())
		out[i], out[j] = out[j], out[i]
	}

	result := string(out)
	if err := policy.Validate(result); err != nil {
		return "", fmt.Errorf("generated password failed policy: %w", err)
	}
	return result, nil
}

func randomChar(class string) (byte, error) {
	if class == "" || strings.TrimSpace(class) == "" {
		return 0, errors.New("empty character class")
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(class))))
	if err != nil {
		return 0, err
	}
	return class[n.Int64()], nil
}
