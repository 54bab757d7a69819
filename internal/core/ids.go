package core

import (
	"strings"

	"github.com/google/uuid"
)

const (
	orderIDPrefix        = "ORD"
	subscriptionIDPrefix = "SUB"
	uploadIDPrefix       = "file"
	customIDPrefix       = "custom"
)

func shortToken(n int) string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:n])
}

func newID(prefix string) string {
	return prefix + "-" + shortToken(8)
}

func newTrackingNumber() string {
	return "TRK" + shortToken(12)
}
