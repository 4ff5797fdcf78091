package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	domainconfig "github.com/felixgeelhaar/shrdlu/domain/config"
)

// envPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([-?])([^}]*))?\}`)

// expandEnv substitutes environment references. With strict set, an unset
// ${VAR} is an error; ${VAR:?msg} is always an error when VAR is empty.
func expandEnv(input string, lookup func(string) (string, bool), strict bool) (string, error) {
	var missing []string

	out := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		m := envPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, ok := lookup(name)

		switch op {
		case "-":
			if !ok || value == "" {
				return arg
			}
		case "?":
			if !ok || value == "" {
				missing = append(missing, name+": "+arg)
				return match
			}
		default:
			if !ok && strict {
				missing = append(missing, name)
			}
		}
		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", domainconfig.ErrMissingEnvVar, strings.Join(missing, ", "))
	}
	return out, nil
}

// ExpandEnv expands environment references, leaving unset variables empty.
func ExpandEnv(input string) string {
	out, err := expandEnv(input, os.LookupEnv, false)
	if err != nil {
		return input
	}
	return out
}

// ExpandEnvStrict expands environment references and fails on unset variables.
func ExpandEnvStrict(input string) (string, error) {
	return expandEnv(input, os.LookupEnv, true)
}
