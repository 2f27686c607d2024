package trainer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Unit is the unit of a training Duration.
type Unit string

const (
	UnitEpoch Unit = "ep"
	UnitBatch Unit = "ba"
)

// DurationPattern matches the textual form of a Duration, e.g. "10ep".
const DurationPattern = `^[1-9][0-9]*(ep|ba)$`

// MaxDurationValue is the largest count a Duration may hold. Together with
// the same bound on batches per epoch it keeps batch counts inside int64.
const MaxDurationValue = math.MaxInt32

var durationRe = regexp.MustCompile(DurationPattern)

// Duration is a length of training measured in epochs or batches.
type Duration struct {
	Value int
	Unit  Unit
}

// ParseDuration parses strings such as "3ep" or "1000ba".
func ParseDuration(s string) (Duration, error) {
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return Duration{}, fmt.Errorf("invalid duration %q: expected <n>ep or <n>ba", s)
	}
	n, err := strconv.Atoi(s[:len(s)-len(m[1])])
	if err != nil || n > MaxDurationValue {
		return Duration{}, fmt.Errorf("invalid duration %q: count exceeds %d", s, MaxDurationValue)
	}
	return Duration{Value: n, Unit: Unit(m[1])}, nil
}

// Batches converts the duration to a batch count, saturating at math.MaxInt.
func (d Duration) Batches(batchesPerEpoch int) int {
	if d.Unit != UnitEpoch {
		return d.Value
	}
	if batchesPerEpoch > 0 && d.Value > math.MaxInt/batchesPerEpoch {
		return math.MaxInt
	}
	return d.Value * batchesPerEpoch
}

func (d Duration) String() string {
	return strconv.Itoa(d.Value) + string(d.Unit)
}
