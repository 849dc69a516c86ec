package utils

import (
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Normalizers for the modem's ad-hoc text encodings. Every function here is
// total: malformed or sentinel input degrades to a documented default and is
// never reported as an error. Required-field failures are the decoder's job.

var truthyTokens = map[string]bool{
	"1":         true,
	"true":      true,
	"yes":       true,
	"y":         true,
	"on":        true,
	"success":   true,
	"permitted": true,
	"enabled":   true,
	"enable":    true,
}

// ToBool reports whether the value is one of the modem's truthy tokens.
// Anything else, including the empty string, is false.
func ToBool(v string) bool {
	return truthyTokens[strings.ToLower(v)]
}

// ToStringOrNone returns nil for the modem's "not available" sentinels
// ("", "NA", "N/A" in any case), otherwise the string unchanged.
func ToStringOrNone(v string) *string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "na", "n/a":
		return nil
	}
	return &v
}

// ToDashStringOrNone returns nil for a lone "-", otherwise the string
// unchanged. The link status page uses "-" where other pages use "N/A".
func ToDashStringOrNone(v string) *string {
	if v == "-" {
		return nil
	}
	return &v
}

// ToIntOrZero parses an integer, returning 0 on failure.
func ToIntOrZero(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

// ToIntOrNone parses an integer, returning nil on failure.
func ToIntOrNone(v string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &n
}

// ToInt64OrNone parses a 64-bit integer, returning nil on failure. Error
// counters can exceed 32 bits between reboots.
func ToInt64OrNone(v string) *int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// ToFloatOrNone parses a float, returning nil on failure.
func ToFloatOrNone(v string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil
	}
	return &f
}

// ToBigInt evaluates the firmware's overflow-corrected counter encoding: a
// space-separated accumulation expression "N (op N)*" with op in {+, *},
// evaluated left to right with no precedence. Each numeric token is parsed
// as a float and truncated to an integer before it is combined, so
// "1.5 + 2" is 1 + 2 = 3. Unknown operators are skipped. Returns nil when
// the leading token cannot be parsed.
func ToBigInt(v string) *int64 {
	parts := strings.Fields(v)
	if len(parts) == 0 {
		return nil
	}
	result, ok := truncToken(parts[0])
	if !ok {
		return nil
	}
	for i := 1; i+1 < len(parts); i += 2 {
		val, ok := truncToken(parts[i+1])
		if !ok {
			return nil
		}
		switch parts[i] {
		case "+":
			result += val
		case "*":
			result *= val
		}
	}
	return &result
}

func truncToken(tok string) (int64, bool) {
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

var durationRe = regexp.MustCompile(`^D: ([0-9-]+) H: ([0-9-]+) M: ([0-9-]+) S: ([0-9-]+)$`)

// ToDuration parses the modem's lease-duration encoding
// "D: <n> H: <n> M: <n> S: <n>" where any component may be "-". A component
// that fails to parse counts as 0; a string that does not match the pattern
// at all yields a zero duration.
func ToDuration(v string) time.Duration {
	m := durationRe.FindStringSubmatch(v)
	if m == nil {
		return 0
	}
	return time.Duration(ToIntOrZero(m[1]))*24*time.Hour +
		time.Duration(ToIntOrZero(m[2]))*time.Hour +
		time.Duration(ToIntOrZero(m[3]))*time.Minute +
		time.Duration(ToIntOrZero(m[4]))*time.Second
}

// ToIPOrNone parses an IPv4 or IPv6 address, returning nil on failure.
func ToIPOrNone(v string) net.IP {
	return net.ParseIP(strings.TrimSpace(v))
}

// ToLinkBool reports whether an ethernet link status string is "up".
func ToLinkBool(v string) bool {
	return strings.ToLower(v) == "up"
}
