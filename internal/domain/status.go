package domain

import "strings"

// Color is the health color carried by a raw status string.
type Color string

const (
	ColorRed   Color = "RED"
	ColorAmber Color = "AMBER"
	ColorGreen Color = "GREEN"
	ColorBlack Color = "BLACK"
)

// Colors lists the known colors in the order the parser tries them.
var Colors = []Color{ColorRed, ColorAmber, ColorGreen, ColorBlack}

const parseErrorPrefix = "FATAL: Error while parsing raw status: "

// RawStatus is the parsed form of an encoded status string such as
// "GREEN(all good)" or "AMBER[flapping]". Square brackets mark an
// intermittent status.
type RawStatus struct {
	Color        Color
	Message      string
	Intermittent bool
}

// ParseRawStatus never fails. A string that does not start with a known
// color yields RED with a diagnostic message embedding the input.
//
// Colors are tried in the order of Colors and the first textual prefix
// match wins, so a color name that prefixes another token would shadow it.
func ParseRawStatus(raw string) RawStatus {
	for _, color := range Colors {
		if !strings.HasPrefix(raw, string(color)) {
			continue
		}
		status := RawStatus{Color: color}
		rest := raw[len(color):]
		if len(rest) >= 2 {
			status.Message = rest[1 : len(rest)-1]
		}
		status.Intermittent = len(rest) > 0 && rest[0] == '['
		return status
	}
	return RawStatus{
		Color:   ColorRed,
		Message: parseErrorPrefix + raw,
	}
}

// String re-encodes the status in its wire form.
func (s RawStatus) String() string {
	if s.Intermittent {
		return string(s.Color) + "[" + s.Message + "]"
	}
	return string(s.Color) + "(" + s.Message + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (s RawStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Records decoded from
// the backend are parsed here, exactly once.
func (s *RawStatus) UnmarshalText(text []byte) error {
	*s = ParseRawStatus(string(text))
	return nil
}
