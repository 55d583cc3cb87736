package orders

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNewOrderNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-(\d+)-([A-Z0-9]{9})$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		number := NewOrderNumber()

		match := pattern.FindStringSubmatch(number)
		if match == nil {
			t.Fatalf("unexpected format: %s", number)
		}

		millis, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			t.Fatalf("timestamp segment not an integer: %s", number)
		}
		if diff := time.Since(time.UnixMilli(millis)); diff < 0 || diff > time.Minute {
			t.Fatalf("timestamp segment not recent: %s", number)
		}

		if strings.ContainsAny(match[2], "abcdefghijklmnopqrstuvwxyz") {
			t.Fatalf("suffix must be uppercase: %s", number)
		}

		seen[number] = true
	}

	if len(seen) < 100 {
		t.Fatalf("expected 100 distinct numbers, got %d", len(seen))
	}
}
