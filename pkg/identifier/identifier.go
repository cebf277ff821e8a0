// Package identifier generates registration and transaction identifiers.
// Generation is stateless: uniqueness comes from UUID entropy, readability
// from a short base-32 form, so no shared counter exists across requests.
package identifier

import (
	"encoding/base32"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"utsav/pkg/domain"
)

// shortEncoding is unpadded, uppercase base32. The alphabet avoids lowercase
// so ids survive being read over the phone and typed into payment forms.
var shortEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewRegistrationID returns an id like "R-K7KQ3ZJM". Eight base-32 characters
// carry 40 bits of entropy, enough for an event-sized population; the store's
// unique constraint backstops the negligible collision chance.
func NewRegistrationID() domain.RegistrationID {
	return domain.RegistrationID(domain.RegistrationIDPrefix + shortToken(8))
}

// NewTransactionID returns an id like "TXN-MC9I3X-4QZ2PKW1". The leading
// base-36 timestamp keeps gateway dashboards roughly chronological; the
// suffix makes concurrent submissions distinct.
func NewTransactionID() domain.TransactionID {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return domain.TransactionID(domain.TransactionIDPrefix + ts + "-" + shortToken(8))
}

func shortToken(n int) string {
	u := uuid.New()
	enc := shortEncoding.EncodeToString(u[:])
	return enc[:n]
}
