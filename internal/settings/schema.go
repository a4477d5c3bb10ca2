package settings

import (
	"fmt"
	"regexp"
)

// Type is the expected type of a setting's value.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeBool
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Entry declares one recognised setting.
type Entry struct {
	Key  string
	Type Type

	// Required fails validation when the key is absent.
	Required bool

	// RequiredIf names another setting; when that setting resolves to true
	// this one becomes required.
	RequiredIf string

	// Default is used when the key is absent. Nil means no value.
	Default any

	// Pattern must fully match the raw value of string settings.
	Pattern string
}

// Schema is an ordered, immutable set of entries.
type Schema struct {
	entries  []Entry
	index    map[string]int
	patterns map[string]*regexp.Regexp
}

// NewSchema validates and compiles entries into a Schema.
//
// It rejects duplicate keys, patterns that do not compile, RequiredIf
// references to unknown keys and cycles through RequiredIf.
func NewSchema(entries ...Entry) (*Schema, error) {
	s := &Schema{
		entries:  make([]Entry, len(entries)),
		index:    make(map[string]int, len(entries)),
		patterns: make(map[string]*regexp.Regexp),
	}
	copy(s.entries, entries)

	for i, e := range s.entries {
		if e.Key == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty key", ErrInvalidSchema, i)
		}
		if _, dup := s.index[e.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %s", ErrInvalidSchema, e.Key)
		}
		s.index[e.Key] = i

		if e.Pattern != "" {
			re, err := regexp.Compile(`^(?:` + e.Pattern + `)$`)
			if err != nil {
				return nil, fmt.Errorf("%w: pattern for %s: %w", ErrInvalidSchema, e.Key, err)
			}
			s.patterns[e.Key] = re
		}
	}

	for _, e := range s.entries {
		if e.RequiredIf == "" {
			continue
		}
		if _, ok := s.index[e.RequiredIf]; !ok {
			return nil, fmt.Errorf("%w: %s is required if unknown setting %s", ErrInvalidSchema, e.Key, e.RequiredIf)
		}
		if err := s.checkCycle(e.Key); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// checkCycle follows the RequiredIf chain from key and fails if it returns to key.
func (s *Schema) checkCycle(key string) error {
	seen := map[string]bool{key: true}
	next := s.entries[s.index[key]].RequiredIf
	for next != "" {
		if seen[next] {
			return fmt.Errorf("%w: RequiredIf cycle through %s", ErrInvalidSchema, key)
		}
		seen[next] = true
		next = s.entries[s.index[next]].RequiredIf
	}
	return nil
}

// Entries returns a copy of the entries in declaration order.
func (s *Schema) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Lookup returns the entry for key.
func (s *Schema) Lookup(key string) (Entry, bool) {
	i, ok := s.index[key]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Setting keys recognised by the device.
const (
	KeySSID       = "SSID"
	KeyKey        = "KEY"
	KeyMaxCon     = "MAX_CON"
	KeyTimeout    = "TIMEOUT"
	KeyPort       = "PORT"
	KeyStatic     = "STATIC"
	KeyAddr       = "ADDR"
	KeyMask       = "MASK"
	KeyGateway    = "GATEWAY"
	KeyAddrFamily = "ADDR_FAMILY"
)

// DefaultSchema returns the schema of the device settings file.
func DefaultSchema() *Schema {
	s, err := NewSchema(
		Entry{Key: KeySSID, Type: TypeString, Required: true},
		Entry{Key: KeyKey, Type: TypeString, Required: true},
		Entry{Key: KeyMaxCon, Type: TypeInt, Default: 5},
		Entry{Key: KeyTimeout, Type: TypeInt, Default: 10},
		Entry{Key: KeyPort, Type: TypeInt, Default: 80},
		Entry{Key: KeyStatic, Type: TypeBool, Default: false, Pattern: "TRUE|FALSE"},
		// Addresses are not pattern checked; the network manager rejects bad ones.
		Entry{Key: KeyAddr, Type: TypeString, RequiredIf: KeyStatic},
		Entry{Key: KeyMask, Type: TypeString, RequiredIf: KeyStatic},
		Entry{Key: KeyGateway, Type: TypeString, RequiredIf: KeyStatic},
		Entry{Key: KeyAddrFamily, Type: TypeString, RequiredIf: KeyStatic, Pattern: "INET|INET6"},
	)
	if err != nil {
		panic(fmt.Sprintf("settings: default schema: %v", err))
	}
	return s
}
