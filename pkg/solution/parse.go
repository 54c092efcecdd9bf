package solution

import (
	"bufio"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/transitmap/pkg/errors"
)

// objectivePrefix marks the header line carrying the objective value.
const objectivePrefix = "objective value:"

// Values maps variable names to their solved values.
type Values map[string]float64

// Get returns the value of name and whether it was present.
func (v Values) Get(name string) (float64, bool) {
	x, ok := v[name]
	return x, ok
}

// Names returns the variable names in sorted order.
func (v Values) Names() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NonFinite returns the sorted names whose value is NaN or infinite.
func (v Values) NonFinite() []string {
	var names []string
	for name, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Parse reads a solution from r. It fails only when r does; malformed lines
// are skipped.
func Parse(r io.Reader) (Values, error) {
	v, _, err := ParseWithObjective(r)
	return v, err
}

// ParseWithObjective is like [Parse] and also returns the objective value
// from the header line, or nil when the input has none.
func ParseWithObjective(r io.Reader) (Values, *float64, error) {
	var (
		values    = Values{}
		objective *float64
		br        = bufio.NewReader(r)
	)

	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if obj, ok := parseLine(values, line); ok {
				objective = &obj
			}
		}
		if err == io.EOF {
			return values, objective, nil
		}
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeParse, err, "read solution")
		}
	}
}

// parseLine records one assignment into values. For the objective header it
// returns the objective and true instead.
func parseLine(values Values, line string) (float64, bool) {
	line = strings.TrimRight(line, "\r\n")
	if rest, ok := strings.CutPrefix(line, objectivePrefix); ok {
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return 0, false
		}
		return parseFloat(fields[0]), true
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, false
	}
	values[fields[0]] = parseFloat(fields[1])
	return 0, false
}

// parseFloat returns NaN for text that is not a number and ±Inf for numbers
// out of range.
func parseFloat(s string) float64 {
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return x
		}
		return math.NaN()
	}
	return x
}
