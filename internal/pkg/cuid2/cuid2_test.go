package cuid2

import (
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEncodeTimestampBase62(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int64
		expected string
	}{
		{"Zero timestamp", 0, "000000"},
		{"One second", 1, "000001"},
		{"62 seconds", 62, "000010"},
		{"One minute", 60, "00000y"},
		{"One hour", 3600, "0000w4"},
		{"One day", 86400, "000MTY"},
		{"Unix epoch test", 1704067200, "1rK5iq"},
		{"Negative clamps to zero", -5, "000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EncodeTimestampBase62(tt.seconds)
			if result != tt.expected {
				t.Errorf("EncodeTimestampBase62(%d) = %s, want %s", tt.seconds, result, tt.expected)
			}
		})
	}
}

func TestEncodeBase62(t *testing.T) {
	tests := []struct {
		n        uint64
		width    int
		expected string
	}{
		{0, 4, "0000"},
		{61, 4, "000z"},
		{62, 4, "0010"},
		{3843, 2, "zz"},
		{3844, 2, "00"},
	}

	for _, tt := range tests {
		if got := EncodeBase62(tt.n, tt.width); got != tt.expected {
			t.Errorf("EncodeBase62(%d, %d) = %s, want %s", tt.n, tt.width, got, tt.expected)
		}
	}
}

func TestRandomID(t *testing.T) {
	length := 24
	id, err := randomID(length)
	if err != nil {
		t.Fatalf("randomID failed: %v", err)
	}

	if len(id) != length {
		t.Errorf("Generated ID length = %d, want %d", len(id), length)
	}

	for _, c := range id {
		if !strings.ContainsRune(base62Alphabet, c) {
			t.Errorf("ID contains non-base62 character: %c in %s", c, id)
		}
	}

	ids := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, _ := randomID(length)
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestRandomIDLongLength(t *testing.T) {
	id, err := randomID(200)
	if err != nil {
		t.Fatalf("randomID failed: %v", err)
	}
	if len(id) != 200 {
		t.Errorf("Generated ID length = %d, want 200", len(id))
	}
}

func TestGeneratePrefixedId(t *testing.T) {
	id, err := GeneratePrefixedId("req", PrefixedIdOptions{})
	if err != nil {
		t.Fatalf("GeneratePrefixedId failed: %v", err)
	}

	pattern := regexp.MustCompile(`^req_[0-9A-Za-z]{24}$`)
	if !pattern.MatchString(id) {
		t.Errorf("ID %q does not match %s", id, pattern)
	}

	short, _ := GeneratePrefixedId("req", PrefixedIdOptions{RandomLength: 4})
	if len(short) != len("req_")+6+4 {
		t.Errorf("ID %q has unexpected length %d", short, len(short))
	}
}

func TestNewOutputName(t *testing.T) {
	fixed := func() time.Time { return time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC) }

	name, err := NewOutputName("Прайс_Стандарт_", "xlsx", OutputNameOptions{Now: fixed})
	if err != nil {
		t.Fatalf("NewOutputName failed: %v", err)
	}

	pattern := regexp.MustCompile(`^Прайс_Стандарт_20250305_1tpcB6[0-9A-Za-z]{4}[0-9A-Za-z]{6}\.xlsx$`)
	if !pattern.MatchString(name) {
		t.Errorf("name %q does not match %s", name, pattern)
	}
}

func TestNewOutputNameUniqueWithinOneTick(t *testing.T) {
	fixed := func() time.Time { return time.Unix(1741132800, 0) }

	const workers, perWorker = 8, 250
	names := make(chan string, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				name, err := NewOutputName("out_", ".xlsx", OutputNameOptions{Now: fixed, RandomLength: 1})
				if err != nil {
					t.Errorf("NewOutputName failed: %v", err)
					return
				}
				names <- name
			}
		}()
	}
	wg.Wait()
	close(names)

	seen := make(map[string]bool)
	for name := range names {
		if seen[name] {
			t.Errorf("duplicate output name %s", name)
		}
		seen[name] = true
	}
	if len(seen) != workers*perWorker {
		t.Errorf("got %d names, want %d", len(seen), workers*perWorker)
	}
}
