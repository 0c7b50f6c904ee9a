package document

import (
	"errors"

	"github.com/auroraa/watermark-engine/pkg/models"
)

// rejectError carries the DocumentRejectReason spec §4.7's state machine
// assigns when a document fails to verify. errors.As lets callers recover
// the reason without string-matching error text.
type rejectError struct {
	reason models.DocumentRejectReason
}

func (e *rejectError) Error() string {
	return "document watermark rejected: " + string(e.reason)
}

func reject(reason models.DocumentRejectReason) error {
	return &rejectError{reason: reason}
}

// ReasonFor extracts the DocumentRejectReason from err, if any was attached
// by this package.
func ReasonFor(err error) (models.DocumentRejectReason, bool) {
	var re *rejectError
	if errors.As(err, &re) {
		return re.reason, true
	}
	return "", false
}

var (
	errNoFrame         = reject(models.ReasonNoFrame)
	errBadLength       = reject(models.ReasonBadLength)
	errBadUTF8         = reject(models.ReasonBadUTF8)
	errBadSignature    = reject(models.ReasonBadSignature)
	errOwnerMismatch   = reject(models.ReasonOwnerMismatch)
	errVersionMismatch = reject(models.ReasonVersionMismatch)
)
