package tool

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randBase36(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36[rand.Intn(len(base36))]
	}
	return string(b)
}

// NewRoleOrderID returns an external-facing order id for a role purchase,
// e.g. "plisio-1717000000000-a1b2c3d4e".
func NewRoleOrderID() string {
	return "plisio-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + randBase36(9)
}

// NewStarOrderID returns an external-facing order id for a star upgrade,
// e.g. "plisio-star-1a2b3c4d-000123-x9y8z".
func NewStarOrderID(userID string) string {
	uid := userID
	if len(uid) > 8 {
		uid = uid[:8]
	}
	ms := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "plisio-star-" + uid + "-" + ms + "-" + randBase36(5)
}
