package services

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/briar-chapel-connect/internal/domain"
	"github.com/tbourn/briar-chapel-connect/internal/sysutil"
)

var validate = newValidator()

// slugRE matches lowercase identifiers such as "event", "marketplace_item"
// or "home-services".
var slugRE = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so messages can be keyed by wire field.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRE.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("grouptype", func(fl validator.FieldLevel) bool {
		return domain.IsGroupType(fl.Field().String())
	})
	_ = v.RegisterValidation("condition", func(fl validator.FieldLevel) bool {
		for _, c := range domain.Conditions {
			if c == fl.Field().String() {
				return true
			}
		}
		return false
	})
	return v
}

// check validates in and converts the first failure into a ValidationError.
// msgs maps "field" or "field.tag" to a message; "*" is the fallback.
func check(in any, msgs map[string]string) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) || len(fes) == 0 {
		return err
	}
	fe := fes[0]
	for _, k := range []string{fe.Field() + "." + fe.Tag(), fe.Field(), "*"} {
		if m, ok := msgs[k]; ok {
			return invalid(m)
		}
	}
	return invalid("invalid " + fe.Field())
}

// clean trims s and normalizes it to NFC.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// cleanPtr is clean for optional fields; blank becomes nil.
func cleanPtr(s *string) *string {
	v := clean(sysutil.Deref(s))
	if v == "" {
		return nil
	}
	return &v
}

// cleanList trims every entry, drops blanks and keeps at most limit.
func cleanList(in []string, limit int) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

// pageBounds clamps page and size and returns the row offset.
func pageBounds(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size, (page - 1) * size
}
