package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// Rules maps an environment key to pipe-separated rules.
//
//	Rules{"LOG_FORMAT": "required|in:json,console"}
type Rules map[string]string

// defaultRules are the checks Validate applies.
var defaultRules = Rules{
	"APP_NAME":               "required|max:64",
	"APP_ENV":                "required|alpha_dash",
	"RESOLVER_DEFAULT_SCOPE": "required|alpha_dash",
	"RESOLVER_LOCKING":       "required|in:per-name,coarse",
	"LOG_LEVEL":              "required|in:debug,info,warn,error",
	"LOG_FORMAT":             "required|in:json,console",
	"INSPECT_ADDR":           "sometimes|host_port",
}

// validationOrder is the order keys are checked in, so the reported error
// is stable.
var validationOrder = []string{
	"APP_NAME", "APP_ENV",
	"RESOLVER_DEFAULT_SCOPE", "RESOLVER_LOCKING",
	"LOG_LEVEL", "LOG_FORMAT",
	"INSPECT_ADDR",
}

var alphaDash = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// check runs rules against data in order and returns the first rejected
// key. Rules for a key stop at its first failure.
func check(data map[string]string, rules Rules, order []string) *InvalidValueError {
	for _, key := range order {
		ruleStr, ok := rules[key]
		if !ok {
			continue
		}
		value := data[key]
		for _, r := range strings.Split(ruleStr, "|") {
			name, param, _ := strings.Cut(strings.TrimSpace(r), ":")
			stop, reason := apply(value, name, param)
			if reason != "" {
				return &InvalidValueError{Key: key, Value: value, Reason: reason}
			}
			if stop {
				break
			}
		}
	}
	return nil
}

// apply evaluates one rule. stop ends the rules of the key without error.
func apply(value, rule, param string) (stop bool, reason string) {
	switch rule {
	case "required":
		if strings.TrimSpace(value) == "" {
			return false, "is required"
		}

	case "sometimes":
		if value == "" {
			return true, ""
		}

	case "max":
		var n int
		fmt.Sscanf(param, "%d", &n)
		if len([]rune(value)) > n {
			return false, fmt.Sprintf("may not be longer than %d characters", n)
		}

	case "in":
		for _, allowed := range strings.Split(param, ",") {
			if strings.TrimSpace(allowed) == value {
				return false, ""
			}
		}
		return false, "must be one of " + param

	case "alpha_dash":
		if !alphaDash.MatchString(value) {
			return false, "may only contain letters, numbers, dashes and underscores"
		}

	case "host_port":
		if _, _, err := net.SplitHostPort(value); err != nil {
			return false, "must be host:port"
		}
	}
	return false, ""
}
