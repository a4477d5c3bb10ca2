package settings

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// Values maps each schema key to its resolved value: a string, an int, a
// bool, or nil for an absent setting without a default.
type Values map[string]any

// String returns the string value of key, or "" if it is unset or not a string.
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Int returns the int value of key, or 0 if it is unset or not an int.
func (v Values) Int(key string) int {
	n, _ := v[key].(int)
	return n
}

// Bool returns the bool value of key, or false if it is unset or not a bool.
func (v Values) Bool(key string) bool {
	b, _ := v[key].(bool)
	return b
}

// Logger is the logging interface used by the validator.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Validator checks raw settings against a Schema.
type Validator struct {
	schema *Schema
	logger Logger
}

// NewValidator creates a validator for schema.
func NewValidator(schema *Schema) *Validator {
	return &Validator{
		schema: schema,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger used for per-key debug output.
func (v *Validator) SetLogger(logger Logger) {
	v.logger = logger
}

// ParseLines splits "KEY=VALUE" lines on the first '='.
//
// Line terminators are stripped; lines without '=' are skipped. Later
// occurrences of a key override earlier ones. Keys are not checked against
// any schema here.
func ParseLines(lines []string) map[string]string {
	raw := make(map[string]string, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r\n")
		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			continue
		}
		raw[key] = value
	}
	return raw
}

// ReadLines reads r line by line.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return lines, nil
}

// Validate resolves every schema entry from raw.
//
// Resolution runs in two passes. The first resolves entries without a
// RequiredIf reference in declaration order; the second resolves the
// conditional entries, so their controlling setting always has its final
// value regardless of where it is declared. The first failure is returned
// as a *ValidationError.
func (v *Validator) Validate(raw map[string]string) (Values, error) {
	out := make(Values, len(v.schema.entries))

	for _, e := range v.schema.entries {
		if e.RequiredIf != "" {
			continue
		}
		if err := v.resolve(e, raw, out); err != nil {
			return nil, err
		}
	}

	for _, e := range v.schema.entries {
		if e.RequiredIf == "" {
			continue
		}
		if err := v.resolveConditional(e, raw, out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// resolveConditional resolves e after the entry it depends on. Chains of
// conditional entries are followed depth first; NewSchema rules out cycles.
func (v *Validator) resolveConditional(e Entry, raw map[string]string, out Values) error {
	if _, done := out[e.Key]; done {
		return nil
	}
	if _, done := out[e.RequiredIf]; !done {
		ref, _ := v.schema.Lookup(e.RequiredIf)
		if err := v.resolveConditional(ref, raw, out); err != nil {
			return err
		}
	}
	return v.resolve(e, raw, out)
}

// resolve validates and stores a single entry.
func (v *Validator) resolve(e Entry, raw map[string]string, out Values) error {
	v.logger.Debug("validating setting", "key", e.Key)

	value, supplied := raw[e.Key]
	if !supplied {
		if e.Required {
			return &ValidationError{Kind: KindMissingRequired, Key: e.Key}
		}
		if e.RequiredIf != "" && truthy(out[e.RequiredIf]) {
			return &ValidationError{Kind: KindConditionalRequired, Key: e.Key, Ref: e.RequiredIf}
		}
		v.logger.Info("setting not found, using default", "key", e.Key, "default", e.Default)
		out[e.Key] = e.Default
		return nil
	}

	v.logger.Debug("found setting", "key", e.Key, "expected_type", e.Type.String())

	if re, ok := v.schema.patterns[e.Key]; ok && e.Type == TypeString {
		if !re.MatchString(value) {
			return &ValidationError{Kind: KindPatternMismatch, Key: e.Key, Value: value}
		}
	}

	coerced, err := coerce(e.Type, value)
	if err != nil {
		return &ValidationError{Kind: KindTypeMismatch, Key: e.Key, Value: value, Expected: e.Type}
	}
	out[e.Key] = coerced
	return nil
}

// coerce converts a raw value to t. Booleans are two-state: only a
// case-insensitive "TRUE" is true.
func coerce(t Type, value string) (any, error) {
	switch t {
	case TypeBool:
		return strings.EqualFold(value, "TRUE"), nil
	case TypeInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return value, nil
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	default:
		return false
	}
}

// Load reads and validates the settings file at path.
func (v *Validator) Load(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSettingsNotFound, path)
		}
		return nil, fmt.Errorf("opening settings file: %w", err)
	}
	defer f.Close()

	lines, err := ReadLines(f)
	if err != nil {
		return nil, err
	}

	values, err := v.Validate(ParseLines(lines))
	if err != nil {
		return nil, err
	}
	return FromValues(values), nil
}
