package cartstore

import (
	"errors"
	"fmt"
)

var ErrMiss = errors.New("cart not stored")

// Key returns the storage key for a shopper session.
func Key(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
