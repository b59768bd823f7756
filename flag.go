package validator

import "fmt"

// Flag is the severity attached to assertions, sections and the report as a
// whole. Flags form a total order; aggregating a collection of flags always
// means taking the maximum element.
type Flag int

const (
	// FlagOK indicates no finding. Empty collections aggregate to OK.
	FlagOK Flag = iota
	// FlagExpected marks a finding that a test fixture anticipated.
	// It is produced only by expectation suppression, never by checks.
	FlagExpected
	// FlagWarning indicates a potential problem that should be reviewed.
	FlagWarning
	// FlagError indicates the document violates its profile.
	FlagError
	// FlagFatal indicates validation cannot continue.
	FlagFatal
)

var flagNames = map[Flag]string{
	FlagOK:       "OK",
	FlagExpected: "EXPECTED",
	FlagWarning:  "WARNING",
	FlagError:    "ERROR",
	FlagFatal:    "FATAL",
}

// ParseFlag converts a flag name as found in rule artifacts and configuration
// documents into a Flag.
func ParseFlag(s string) (Flag, error) {
	for f, name := range flagNames {
		if name == s {
			return f, nil
		}
	}
	return FlagOK, fmt.Errorf("unknown flag %q", s)
}

// String returns the flag name.
func (f Flag) String() string {
	if name, ok := flagNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Flag(%d)", int(f))
}

// Max returns the worse of two flags.
func (f Flag) Max(other Flag) Flag {
	if other > f {
		return other
	}
	return f
}

// MarshalText implements encoding.TextMarshaler so flags serialize by name
// in JSON and XML reports.
func (f Flag) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Flag) UnmarshalText(text []byte) error {
	parsed, err := ParseFlag(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MaxFlag aggregates a collection of flags. An empty collection is OK.
func MaxFlag(flags ...Flag) Flag {
	result := FlagOK
	for _, f := range flags {
		result = result.Max(f)
	}
	return result
}
