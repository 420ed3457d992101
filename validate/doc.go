// Package validate contains pure input validators used by the authkit
// engine before any credential work happens. Each validator returns nil
// when the candidate passes and a descriptive error otherwise; invalid
// input is an expected outcome and never panics.
//
// Validators hold no state. Configurable rules are passed per call via
// an options struct whose zero value selects the documented defaults.
package validate
