// Package duration converts hh/mm/ss task durations to and from seconds.
package duration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Component is one hh, mm or ss field. Clients send either "01" or 1, so it
// keeps the raw text and leaves range checks to the validator.
type Component string

func (c *Component) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("duration component: %w", err)
		}
		*c = Component(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration component: %w", err)
	}
	*c = Component(n.String())
	return nil
}

// Int reads an optional sign followed by leading digits. Anything else,
// including an empty component, is 0.
func (c Component) Int() int {
	s := strings.TrimSpace(string(c))
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			break
		}
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		return -n
	}
	return n
}

// Duration is the wire form of a task length.
type Duration struct {
	HH Component `json:"hh"`
	MM Component `json:"mm"`
	SS Component `json:"ss"`
}

// ToSeconds returns hh*3600 + mm*60 + ss without clamping any component.
func ToSeconds(d Duration) int {
	return d.HH.Int()*3600 + d.MM.Int()*60 + d.SS.Int()
}

// FromSeconds splits a non-negative number of seconds into zero-padded parts.
func FromSeconds(total int) Duration {
	if total < 0 {
		total = 0
	}
	return Duration{
		HH: Component(fmt.Sprintf("%02d", total/3600)),
		MM: Component(fmt.Sprintf("%02d", total%3600/60)),
		SS: Component(fmt.Sprintf("%02d", total%60)),
	}
}

// String renders the duration as HH:MM:SS.
func (d Duration) String() string {
	return fmt.Sprintf("%s:%s:%s", pad2(string(d.HH)), pad2(string(d.MM)), pad2(string(d.SS)))
}

// Format renders a number of seconds as HH:MM:SS.
func Format(total int) string {
	return FromSeconds(total).String()
}

func pad2(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
