package linkedin

import (
	"fmt"

	"github.com/hashicorp/go-uuid"
)

// DefaultIDLength is the length of ids generated by NewID without a prefix
const DefaultIDLength = 36

// NewID generates an ID with an optional prefix.   The ID generated is
// suitable for an authorization request's state parameter.
func NewID(opt ...Option) (string, error) {
	const op = "linkedin.NewID"
	opts := getIDOpts(opt...)
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate id: %w: %w", op, ErrIDGeneratorFailed, err)
	}
	switch {
	case opts.withPrefix != "":
		return fmt.Sprintf("%s_%s", opts.withPrefix, id), nil
	default:
		return id, nil
	}
}

// idOptions is the set of available options for NewID
type idOptions struct {
	withPrefix string
}

// idDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func idDefaults() idOptions {
	return idOptions{}
}

// getIDOpts gets the defaults and applies the opt overrides passed in
func getIDOpts(opt ...Option) idOptions {
	opts := idDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithPrefix provides an optional prefix for a new ID
func WithPrefix(prefix string) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *idOptions:
			v.withPrefix = prefix
		}
	}
}
