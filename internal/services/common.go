package services

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// GenerateReference returns a human readable, time ordered reference such as
// VID20261015093000-0421. It is not unique on its own.
func GenerateReference(prefix string) string {
	suffix := fmt.Sprintf("%04d", rand.Intn(10000))
	return fmt.Sprintf("%s%s-%s", prefix, time.Now().UTC().Format("20060102150405"), suffix)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
