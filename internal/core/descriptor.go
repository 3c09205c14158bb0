package core

// descriptor.go defines the per-institution Format Descriptor and its
// construction-time validation.
//
// A descriptor is declarative: which source columns feed which canonical
// columns, how dates are rewritten, and which decimal separator amounts use.
// Descriptors are validated and compiled once, when they enter the registry,
// and are never mutated afterwards.

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Descriptor describes how one institution's export maps to the canonical schema.
type Descriptor struct {
	Code            string          // Institution code: "SCB"
	Description     string          // Display name: "Siam Commercial Bank, Thailand"
	Columns         []ColumnMapping // Canonical column -> accepted source aliases
	DatePattern     string          // Regex matching the source's date serialization
	DateReplacement string          // Template reordering capture groups, e.g. `\2/\1/\3`
	DecimalStyle    DecimalStyle    // PERIOD or COMMA
	DateSeparator   DateSeparator   // Informational: SLASH or DASH

	dateRule DateRule
	compiled bool
}

// DateRule is a compiled date pattern/replacement pair.
type DateRule struct {
	re       *regexp.Regexp
	template string
	source   string
}

// CompileDateRule compiles a date pattern and a back-reference replacement.
//
// The replacement uses backslash references: \1 .. \99, \g<1> or \g<name>.
// A literal backslash is written as \\ and '$' is always literal. The
// control escapes \a \b \f \n \r \t \v are recognized; octal escapes and
// other backslash-letter sequences are rejected. A backslash before any
// other character is kept as written.
func CompileDateRule(pattern, replacement string) (DateRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return DateRule{}, fmt.Errorf("invalid date pattern %q: %w", pattern, err)
	}
	tmpl, err := translateReplacement(replacement, re)
	if err != nil {
		return DateRule{}, fmt.Errorf("invalid date replacement %q: %w", replacement, err)
	}
	return DateRule{re: re, template: tmpl, source: pattern}, nil
}

// MustCompileDateRule is like CompileDateRule but panics on error.
func MustCompileDateRule(pattern, replacement string) DateRule {
	rule, err := CompileDateRule(pattern, replacement)
	if err != nil {
		panic(err)
	}
	return rule
}

// Pattern returns the source pattern of the rule.
func (r DateRule) Pattern() string {
	return r.source
}

// Match reports whether the rule's pattern matches s anywhere.
func (r DateRule) Match(s string) bool {
	return r.re != nil && r.re.MatchString(s)
}

// Apply substitutes every match of the pattern in s. Values that do not
// match are returned unchanged.
func (r DateRule) Apply(s string) string {
	if r.re == nil {
		return s
	}
	return r.re.ReplaceAllString(s, r.template)
}

// translateReplacement rewrites a backslash-style template into a Go
// expansion template and checks that every referenced group exists.
func translateReplacement(repl string, re *regexp.Regexp) (string, error) {
	names := make(map[string]bool)
	for _, n := range re.SubexpNames() {
		if n != "" {
			names[n] = true
		}
	}
	groups := re.NumSubexp()

	checkNum := func(num string) error {
		n, err := strconv.Atoi(num)
		if err != nil || n > groups {
			return fmt.Errorf("reference to unknown group %s", num)
		}
		return nil
	}

	var b strings.Builder
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		switch {
		case c == '$':
			b.WriteString("$$")
		case c != '\\':
			b.WriteByte(c)
		case i+1 == len(repl):
			return "", fmt.Errorf("trailing backslash")
		case repl[i+1] == '\\':
			b.WriteByte('\\')
			i++
		case repl[i+1] == '0':
			return "", fmt.Errorf("octal escape at offset %d is not supported", i)
		case isDigit(repl[i+1]):
			j := i + 1
			for j < len(repl) && j < i+3 && isDigit(repl[j]) {
				j++
			}
			num := repl[i+1 : j]
			if err := checkNum(num); err != nil {
				return "", err
			}
			b.WriteString("${" + num + "}")
			i = j - 1
		case repl[i+1] == 'g' && i+2 < len(repl) && repl[i+2] == '<':
			end := strings.IndexByte(repl[i+3:], '>')
			if end < 0 {
				return "", fmt.Errorf("unterminated group name at offset %d", i)
			}
			ref := repl[i+3 : i+3+end]
			if ref == "" {
				return "", fmt.Errorf("empty group name at offset %d", i)
			}
			if isDigit(ref[0]) {
				if err := checkNum(ref); err != nil {
					return "", err
				}
			} else if !names[ref] {
				return "", fmt.Errorf("reference to unknown group %q", ref)
			}
			b.WriteString("${" + ref + "}")
			i += 3 + end
		case controlEscapes[repl[i+1]] != 0:
			b.WriteByte(controlEscapes[repl[i+1]])
			i++
		case isLetter(repl[i+1]):
			return "", fmt.Errorf("bad escape \\%c at offset %d", repl[i+1], i)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

var controlEscapes = map[byte]byte{
	'a': '\a', 'b': '\b', 'f': '\f', 'n': '\n', 'r': '\r', 't': '\t', 'v': '\v',
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// Compile validates d and returns a compiled copy ready for use by the pipeline.
//
// Validation rules:
//   - Code is non-empty
//   - Every mapping targets a canonical column, and each canonical column appears once
//   - Every required canonical column has at least one alias
//   - No alias is claimed by two canonical columns
//   - The date pattern is present, and it and the replacement compile
//   - The decimal style is known
//
// Aliases are normalized with HeaderKey.
func (d Descriptor) Compile() (Descriptor, error) {
	d.Code = strings.TrimSpace(d.Code)
	if d.Code == "" {
		return Descriptor{}, &SchemaMismatchError{Reason: ReasonMissingCode}
	}

	if d.DecimalStyle == "" {
		d.DecimalStyle = DecimalPeriod
	}
	if !d.DecimalStyle.Valid() {
		return Descriptor{}, fmt.Errorf("format %s: unknown decimal style %q", d.Code, d.DecimalStyle)
	}

	owner := make(map[string]string)
	seen := make(map[string]bool)
	columns := make([]ColumnMapping, 0, len(d.Columns))
	for _, m := range d.Columns {
		if !IsCanonical(m.Canonical) {
			return Descriptor{}, fmt.Errorf("format %s: %q is not a canonical column", d.Code, m.Canonical)
		}
		if seen[m.Canonical] {
			return Descriptor{}, fmt.Errorf("format %s: column %s mapped more than once", d.Code, m.Canonical)
		}
		seen[m.Canonical] = true

		aliases := make([]string, 0, len(m.Aliases))
		for _, a := range m.Aliases {
			key := HeaderKey(a)
			if key == "" {
				continue
			}
			if prev, ok := owner[key]; ok && prev != m.Canonical {
				return Descriptor{}, fmt.Errorf("format %s: alias %q maps to both %s and %s", d.Code, key, prev, m.Canonical)
			}
			owner[key] = m.Canonical
			aliases = append(aliases, key)
		}
		columns = append(columns, ColumnMapping{Canonical: m.Canonical, Aliases: aliases})
	}
	d.Columns = columns

	if missing := d.missingRequired(); len(missing) > 0 {
		return Descriptor{}, &SchemaMismatchError{
			Code:    d.Code,
			Reason:  ReasonMissingAliases,
			Missing: missing,
		}
	}

	if strings.TrimSpace(d.DatePattern) == "" {
		return Descriptor{}, fmt.Errorf("format %s: missing date pattern", d.Code)
	}
	rule, err := CompileDateRule(d.DatePattern, d.DateReplacement)
	if err != nil {
		return Descriptor{}, fmt.Errorf("format %s: %w", d.Code, err)
	}
	d.dateRule = rule
	d.compiled = true
	return d, nil
}

// MustCompile is like Compile but panics on error.
// Use this only for built-in descriptors registered at init time.
func (d Descriptor) MustCompile() Descriptor {
	c, err := d.Compile()
	if err != nil {
		panic(err)
	}
	return c
}

// Compiled reports whether d has been validated by Compile.
func (d Descriptor) Compiled() bool {
	return d.compiled
}

// DateRule returns the compiled date rule. Only valid on compiled descriptors.
func (d Descriptor) DateRule() DateRule {
	return d.dateRule
}

// Aliases returns the aliases for a canonical column, in application order.
func (d Descriptor) Aliases(canonical string) []string {
	for _, m := range d.Columns {
		if m.Canonical == canonical {
			return append([]string(nil), m.Aliases...)
		}
	}
	return nil
}

// RenameTable returns alias -> canonical column for every mapped alias.
func (d Descriptor) RenameTable() map[string]string {
	out := make(map[string]string)
	for _, m := range d.Columns {
		for _, a := range m.Aliases {
			out[HeaderKey(a)] = m.Canonical
		}
	}
	return out
}

// MatchesHeader reports whether cells look like this institution's header row:
// at least two cells (or all mapped columns, if fewer) are known aliases.
func (d Descriptor) MatchesHeader(cells []string) bool {
	rename := d.RenameTable()
	hits := make(map[string]bool)
	for _, c := range cells {
		if canonical, ok := rename[HeaderKey(c)]; ok {
			hits[canonical] = true
		}
	}
	need := 2
	if len(d.Columns) < need {
		need = len(d.Columns)
	}
	return need > 0 && len(hits) >= need
}

// missingRequired lists required canonical columns with no alias, sorted.
func (d Descriptor) missingRequired() []string {
	var missing []string
	for _, req := range RequiredColumns {
		if len(d.Aliases(req)) == 0 {
			missing = append(missing, req)
		}
	}
	sort.Strings(missing)
	return missing
}
