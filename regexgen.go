package dbgen

import (
	"fmt"
	"math/rand"
	"regexp/syntax"
)

// defaultMaxRepeat bounds how many extra repetitions an unbounded (or
// open-ended) repeat operator draws beyond its minimum count, when
// rand.regex is not given a max_repeat argument or is given 0.
const defaultMaxRepeat = 8

// generateRandomString produces a random byte string matching the parsed
// pattern, by walking its syntax tree (regexp/syntax) and drawing a
// literal choice at every branch point. This is a deliberately minimal
// stand-in for a full random-regex generator library (none exists
// anywhere in the retrieved pack, and building one is explicitly out of
// scope): it supports literals, character classes, concatenation,
// alternation, grouping, and the usual repeat operators, bounding
// unbounded repeats (`*`, `+`, open-ended `{n,}`) to maxRepeat extra
// repetitions so generation always terminates.
func generateRandomString(rng *rand.Rand, re *syntax.Regexp, maxRepeat int) ([]byte, error) {
	if maxRepeat <= 0 {
		maxRepeat = defaultMaxRepeat
	}
	return appendRandomMatch(rng, re, nil, maxRepeat)
}

func appendRandomMatch(rng *rand.Rand, re *syntax.Regexp, buf []byte, maxRepeat int) ([]byte, error) {
	switch re.Op {
	case syntax.OpNoMatch:
		return nil, fmt.Errorf("rand.regex: pattern matches nothing")
	case syntax.OpEmptyMatch, syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText, syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return buf, nil
	case syntax.OpLiteral:
		for _, r := range re.Rune {
			buf = append(buf, []byte(string(r))...)
		}
		return buf, nil
	case syntax.OpCharClass:
		r := randRuneFromClass(rng, re.Rune)
		return append(buf, []byte(string(r))...), nil
	case syntax.OpAnyCharNotNL, syntax.OpAnyChar:
		return append(buf, byte('a'+rng.Intn(26))), nil
	case syntax.OpCapture:
		return appendRandomMatch(rng, re.Sub[0], buf, maxRepeat)
	case syntax.OpConcat:
		var err error
		for _, sub := range re.Sub {
			buf, err = appendRandomMatch(rng, sub, buf, maxRepeat)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	case syntax.OpAlternate:
		choice := re.Sub[rng.Intn(len(re.Sub))]
		return appendRandomMatch(rng, choice, buf, maxRepeat)
	case syntax.OpStar:
		return appendRandomRepeat(rng, re.Sub[0], buf, 0, maxRepeat, maxRepeat)
	case syntax.OpPlus:
		return appendRandomRepeat(rng, re.Sub[0], buf, 1, 1+maxRepeat, maxRepeat)
	case syntax.OpQuest:
		return appendRandomRepeat(rng, re.Sub[0], buf, 0, 1, maxRepeat)
	case syntax.OpRepeat:
		min, max := re.Min, re.Max
		if max < 0 {
			max = min + maxRepeat
		}
		return appendRandomRepeat(rng, re.Sub[0], buf, min, max, maxRepeat)
	default:
		return nil, fmt.Errorf("rand.regex: unsupported pattern construct %v", re.Op)
	}
}

func appendRandomRepeat(rng *rand.Rand, sub *syntax.Regexp, buf []byte, min, max, maxRepeat int) ([]byte, error) {
	n := min
	if max > min {
		n += rng.Intn(max - min + 1)
	}
	var err error
	for i := 0; i < n; i++ {
		buf, err = appendRandomMatch(rng, sub, buf, maxRepeat)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func randRuneFromClass(rng *rand.Rand, ranges []rune) rune {
	total := 0
	for i := 0; i+1 < len(ranges); i += 2 {
		total += int(ranges[i+1]-ranges[i]) + 1
	}
	if total <= 0 {
		return '?'
	}
	pick := rng.Intn(total)
	for i := 0; i+1 < len(ranges); i += 2 {
		width := int(ranges[i+1]-ranges[i]) + 1
		if pick < width {
			return ranges[i] + rune(pick)
		}
		pick -= width
	}
	return ranges[0]
}
