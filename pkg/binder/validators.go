package binder

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var isbnRE = regexp.MustCompile(`^(\d{9}[\dX]|\d{13})$`)

// dateValidator ensures the value is a real calendar date in the format
// YYYY-MM-DD or the empty string. The empty string is allowed so the value can
// be cleared; add `ne=` to the validate tag when it is required.
func dateValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := time.Parse(DateLayout, value)
	return err == nil
}

// isbnValidator accepts ISBN-10 and ISBN-13 values, ignoring hyphens and
// spaces. Check digits are not verified since many catalogs carry legacy
// numbers with bad ones.
func isbnValidator(fl validator.FieldLevel) bool {
	return isbnRE.MatchString(NormalizeISBN(fl.Field().String()))
}

// NormalizeISBN strips separators and upper-cases a trailing X.
func NormalizeISBN(isbn string) string {
	isbn = strings.NewReplacer("-", "", " ", "").Replace(isbn)
	return strings.ToUpper(isbn)
}
