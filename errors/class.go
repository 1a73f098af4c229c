package errors

// Class groups root errors into the failure families a caller can react to.
type Class uint8

const (
	// Internal is used for coding errors and for any error that was not
	// created from a registered root error.
	Internal Class = iota
	// Authorization failures: missing signer, insufficient permission,
	// threshold unmet, wrong domain binding.
	Authorization
	// Validation failures: member set, threshold, message shape, sizes and
	// hash commitments.
	Validation
	// Freshness failures: stale replay token, expired buffer, unknown
	// freshness reference.
	Freshness
	// Storage failures: missing or malformed records.
	Storage
	// Structural failures: account list or lookup table inconsistency and
	// protected account writes.
	Structural
)

func (c Class) valid() bool {
	return c <= Structural
}

func (c Class) String() string {
	switch c {
	case Internal:
		return "internal"
	case Authorization:
		return "authorization"
	case Validation:
		return "validation"
	case Freshness:
		return "freshness"
	case Storage:
		return "storage"
	case Structural:
		return "structural"
	default:
		return "unknown"
	}
}

// ClassOf returns the class of the root error wrapped by given error. Errors
// that do not wrap a registered root error are Internal. For a multi error the
// class of the first error is returned, consistent with the fail-fast
// approach.
func ClassOf(err error) Class {
	if r := rootError(err); r != nil {
		return r.class
	}
	return Internal
}

// rootError unwraps given error until a registered root error is found.
func rootError(err error) *Error {
	if errIsNil(err) {
		return nil
	}
	for {
		switch e := err.(type) {
		case *Error:
			return e
		case multiErr:
			if len(e) == 0 {
				return nil
			}
			err = e[0]
			continue
		}
		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return nil
		}
	}
}
