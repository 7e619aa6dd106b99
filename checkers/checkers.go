// Package checkers provides standard first-party caveat predicates and
// predicate-combining helpers, for use with macaroon.Verifier.
package checkers

import (
	"strings"
	"time"

	"github.com/quaylane/macaroon"
)

// ParseCaveat splits a first-party caveat id into a condition and an
// argument, the convention used by every predicate in this package: the
// condition is everything before the first space, the argument is
// everything after it. A caveat with no space is a bare condition with
// no argument; an empty caveat is never valid.
func ParseCaveat(caveatId []byte) (cond, arg string, ok bool) {
	if len(caveatId) == 0 {
		return "", "", false
	}
	s := string(caveatId)
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", true
}

// Map is a Predicate that dispatches on a caveat's condition, as parsed
// by ParseCaveat, to a per-condition function of the caveat's argument.
// A caveat whose condition is not in the map, or that fails to parse,
// does not match.
type Map map[string]func(arg string) bool

// Matches implements macaroon.Predicate.
func (m Map) Matches(caveatId []byte) bool {
	cond, arg, ok := ParseCaveat(caveatId)
	if !ok {
		return false
	}
	f := m[cond]
	if f == nil {
		return false
	}
	return f(arg)
}

// Std is the set of caveat predicates provided by this package.
var Std = Map{
	"time-before": timeBefore,
}

// TimeBefore returns a caveat id satisfied by Std (or by any Map built
// with Std's "time-before" entry) only while time.Now() precedes t.
func TimeBefore(t time.Time) []byte {
	return []byte("time-before " + t.Format(time.RFC3339))
}

func timeBefore(arg string) bool {
	t, err := time.Parse(time.RFC3339, arg)
	if err != nil {
		return false
	}
	return !time.Now().After(t)
}

// Combine returns a Predicate that matches a caveat id if any of preds
// does, tried in order.
func Combine(preds ...macaroon.Predicate) macaroon.Predicate {
	return macaroon.PredicateFunc(func(caveatId []byte) bool {
		for _, p := range preds {
			if p.Matches(caveatId) {
				return true
			}
		}
		return false
	})
}
