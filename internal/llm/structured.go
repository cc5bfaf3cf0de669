package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
)

// SchemaValidator validates a parsed struct after JSON extraction.
// Returns nil if valid, or a descriptive error if invalid.
type SchemaValidator[T any] func(T) error

// ExtractJSON extracts a JSON object of type T from raw LLM text output.
// It tolerates markdown code fences, surrounding prose, comments, trailing
// commas, and inline arithmetic in "score" positions. If validator is
// non-nil, the extracted value is validated before return.
func ExtractJSON[T any](raw string, validator SchemaValidator[T]) (T, error) {
	var zero T

	cleaned := cleanPayload(raw)

	var result T
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		// Fall back to the outermost balanced object in the text.
		block := balancedBlock(cleaned, '{', '}')
		if block == "" {
			return zero, fmt.Errorf("%w: no JSON object found in response", ErrUnparseable)
		}
		if err := json.Unmarshal([]byte(block), &result); err != nil {
			return zero, fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
	}

	if validator != nil {
		if err := validator(result); err != nil {
			return zero, fmt.Errorf("%w: validation failed: %v", ErrUnparseable, err)
		}
	}

	return result, nil
}

// ExtractJSONArray extracts a JSON array of T from raw LLM text output,
// applying the same recovery pipeline as ExtractJSON.
func ExtractJSONArray[T any](raw string) ([]T, error) {
	cleaned := cleanPayload(raw)

	var result []T
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		block := balancedBlock(cleaned, '[', ']')
		if block == "" {
			return nil, fmt.Errorf("%w: no JSON array found in response", ErrUnparseable)
		}
		if err := json.Unmarshal([]byte(block), &result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
	}
	return result, nil
}

// cleanPayload runs the lossless transformations: trim, fence stripping,
// comment and trailing-comma removal, then score arithmetic evaluation.
func cleanPayload(raw string) string {
	s := strings.TrimSpace(raw)
	s = stripCodeFences(s)
	s = string(jsonc.ToJSON([]byte(s)))
	s = evalScoreArithmetic(s)
	return strings.TrimSpace(s)
}

// stripCodeFences removes markdown code fences (```json ... ``` or ``` ... ```).
func stripCodeFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		result = append(result, line)
	}
	return strings.Join(result, "\n")
}

// balancedBlock finds the first balanced open...close block in the text,
// respecting string literals and escapes.
func balancedBlock(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}

// scoreExprPattern matches a "score" key whose value is a literal
// arithmetic expression, optionally followed by the model's own "= n"
// annotation. Judge models emit forms like "score": 9 - (10 - 7).
var scoreExprPattern = regexp.MustCompile(`("score"\s*:\s*)([0-9(][0-9+\-*/(). ]*?)(\s*=\s*-?[0-9.]+)?(\s*[,}\]\n])`)

// evalScoreArithmetic evaluates literal arithmetic in "score" value
// positions. Expressions using anything beyond digits and +-*/(). are
// left unchanged.
func evalScoreArithmetic(s string) string {
	return scoreExprPattern.ReplaceAllStringFunc(s, func(m string) string {
		parts := scoreExprPattern.FindStringSubmatch(m)
		expr := strings.TrimSpace(parts[2])
		v, err := evalArithmetic(expr)
		if err != nil {
			return m
		}
		return parts[1] + strconv.FormatFloat(v, 'f', -1, 64) + parts[4]
	})
}

// evalArithmetic evaluates an expression over digits and +-*/(). with
// ordinary precedence. Implemented as a small recursive-descent parser.
func evalArithmetic(expr string) (float64, error) {
	p := &exprParser{s: expr}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return 0, fmt.Errorf("unexpected character at position %d", p.pos)
	}
	return v, nil
}

type exprParser struct {
	s   string
	pos int
}

func (p *exprParser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.s) {
			return v, nil
		}
		op := p.s[p.pos]
		if op != '+' && op != '-' {
			return v, nil
		}
		p.pos++
		rhs, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			v += rhs
		} else {
			v -= rhs
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.s) {
			return v, nil
		}
		op := p.s[p.pos]
		if op != '*' && op != '/' {
			return v, nil
		}
		p.pos++
		rhs, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			v *= rhs
		} else {
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			v /= rhs
		}
	}
}

func (p *exprParser) parseFactor() (float64, error) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return 0, fmt.Errorf("unexpected end of expression")
	}

	if p.s[p.pos] == '-' {
		p.pos++
		v, err := p.parseFactor()
		return -v, err
	}

	if p.s[p.pos] == '(' {
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.pos >= len(p.s) || p.s[p.pos] != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}

	start := p.pos
	for p.pos < len(p.s) && (isDigit(p.s[p.pos]) || p.s[p.pos] == '.') {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected number at position %d", start)
	}
	return strconv.ParseFloat(p.s[start:p.pos], 64)
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
