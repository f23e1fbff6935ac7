package quota

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded is the sentinel wrapped by every ExceededError.
var ErrQuotaExceeded = errors.New("quota exceeded")

// Resource identifies which counter tripped a quota check.
type Resource string

const (
	ResourceConversions Resource = "conversions"
	ResourceBytes       Resource = "bytes"
)

// ExceededError reports a failed quota check with enough detail for client
// messaging. It unwraps to ErrQuotaExceeded.
type ExceededError struct {
	Resource Resource
	Used     int64
	Limit    int64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded: %d of %d used", e.Resource, e.Used, e.Limit)
}

func (e *ExceededError) Unwrap() error {
	return ErrQuotaExceeded
}
