package validate

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	defaultUsernameMinLength    = 3
	defaultUsernameMaxLength    = 30
	defaultDisplayNameMaxLength = 50
	minPhoneDigits              = 7
)

// emailPattern accepts local@domain.tld with subdomains, plus-addressing,
// and country-code TLDs. Whitespace anywhere disqualifies before this
// pattern is consulted.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9!#$%&'*+/=?^_` + "`" + `{|}~.-]+@[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?(\.[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?)+$`)

var defaultUsernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Email validates the shape of an email address. It rejects empty
// values, embedded whitespace, and anything that does not match the
// local@domain.tld form.
func Email(s string) error {
	if s == "" {
		return errors.New("email is required")
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return errors.New("email must not contain whitespace")
	}
	if !emailPattern.MatchString(s) {
		return errors.New("email format is invalid")
	}
	return nil
}

// UsernameOptions configures Username. Zero values select the defaults:
// length 3–30 and the alphanumeric + underscore/hyphen character set.
type UsernameOptions struct {
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
}

// Username validates a username against length and character-set rules,
// reporting a distinct message per cause.
func Username(s string, opts UsernameOptions) error {
	minLen := opts.MinLength
	if minLen <= 0 {
		minLen = defaultUsernameMinLength
	}
	maxLen := opts.MaxLength
	if maxLen <= 0 {
		maxLen = defaultUsernameMaxLength
	}
	pattern := opts.Pattern
	if pattern == nil {
		pattern = defaultUsernamePattern
	}

	if s == "" {
		return errors.New("username is required")
	}
	if len(s) < minLen {
		return fmt.Errorf("username must be at least %d characters", minLen)
	}
	if len(s) > maxLen {
		return fmt.Errorf("username must be at most %d characters", maxLen)
	}
	if !pattern.MatchString(s) {
		return errors.New("username contains disallowed characters")
	}
	return nil
}

// DisplayNameOptions configures DisplayName. AllowSpaces defaults to
// true; set DisallowSpaces to reject embedded spaces.
type DisplayNameOptions struct {
	MinLength      int
	MaxLength      int
	DisallowSpaces bool
}

// DisplayName validates a human-facing display name.
func DisplayName(s string, opts DisplayNameOptions) error {
	maxLen := opts.MaxLength
	if maxLen <= 0 {
		maxLen = defaultDisplayNameMaxLength
	}

	if s == "" {
		return errors.New("display name is required")
	}
	if opts.MinLength > 0 && len(s) < opts.MinLength {
		return fmt.Errorf("display name must be at least %d characters", opts.MinLength)
	}
	if len(s) > maxLen {
		return fmt.Errorf("display name must be at most %d characters", maxLen)
	}
	if opts.DisallowSpaces && strings.Contains(s, " ") {
		return errors.New("display name must not contain spaces")
	}
	return nil
}

// Phone validates a phone number. Common separators, parentheses, and a
// leading + are stripped before the digit count is checked.
func Phone(s string) error {
	if s == "" {
		return errors.New("phone number is required")
	}

	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '(' || r == ')' || r == '-' || r == '.' || r == '+':
		default:
			return errors.New("phone number contains invalid characters")
		}
	}
	if digits < minPhoneDigits {
		return fmt.Errorf("phone number must contain at least %d digits", minPhoneDigits)
	}
	return nil
}

// URL validates an absolute URL: a scheme and a host are both required.
func URL(s string) error {
	if s == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(s)
	if err != nil {
		return errors.New("url format is invalid")
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.New("url must include a scheme and host")
	}
	return nil
}

// dateLayouts are tried in order by Date.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// DateOptions carries optional inclusive bounds for Date.
type DateOptions struct {
	Min *time.Time
	Max *time.Time
}

// Date validates that s parses as a calendar date and, when bounds are
// set, falls inside them inclusively.
func Date(s string, opts DateOptions) error {
	if s == "" {
		return errors.New("date is required")
	}

	var (
		parsed time.Time
		ok     bool
	)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			parsed = t
			ok = true
			break
		}
	}
	if !ok {
		return errors.New("date format is invalid")
	}

	if opts.Min != nil && parsed.Before(*opts.Min) {
		return fmt.Errorf("date must be on or after %s", opts.Min.Format("2006-01-02"))
	}
	if opts.Max != nil && parsed.After(*opts.Max) {
		return fmt.Errorf("date must be on or before %s", opts.Max.Format("2006-01-02"))
	}
	return nil
}
