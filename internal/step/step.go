// Package step defines the declarative automation step model.
package step

import (
	"fmt"
	"strconv"
)

// Type names one automation action. The executor handles the closed set
// below; values outside it survive deserialization and only fail when run.
type Type string

const (
	MoveMouse         Type = "move_mouse"
	Click             Type = "click"
	TypeText          Type = "type_text"
	Delay             Type = "delay"
	Screenshot        Type = "screenshot"
	PressHotkey       Type = "press_hotkey"
	FindAndClickImage Type = "find_and_click_image"
)

// Known reports whether t is one of the executable step types.
func (t Type) Known() bool {
	switch t {
	case MoveMouse, Click, TypeText, Delay, Screenshot, PressHotkey, FindAndClickImage:
		return true
	}
	return false
}

// Params holds a step's named values. Values arrive from YAML or JSON, so
// numbers may be int, int64, or float64 depending on the decoder.
type Params map[string]any

// Step is one declarative automation action. ID is assigned on insertion
// into a List and never changes or gets reused.
type Step struct {
	ID     string `json:"id" yaml:"id"`
	Type   Type   `json:"type" yaml:"type"`
	Params Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// Int returns the named parameter as an int.
func (p Params) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Float returns the named parameter as a float64.
func (p Params) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// String returns the named parameter as a string.
func (p Params) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// Strings returns the named parameter as a string slice. YAML and JSON
// decoders produce []any, so elements are converted individually.
func (p Params) Strings(key string) ([]string, bool) {
	switch v := p[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// Summary renders a short human-readable description for logs.
func (s Step) Summary() string {
	switch s.Type {
	case MoveMouse, Click:
		x, _ := s.Params.Int("x")
		y, _ := s.Params.Int("y")
		return fmt.Sprintf("%s (%d, %d)", s.Type, x, y)
	case TypeText:
		text, _ := s.Params.String("text")
		if r := []rune(text); len(r) > 20 {
			text = string(r[:20]) + "..."
		}
		return fmt.Sprintf("%s %q", s.Type, text)
	case Delay:
		sec, _ := s.Params.Float("seconds")
		return fmt.Sprintf("%s %gs", s.Type, sec)
	case FindAndClickImage:
		tpl, _ := s.Params.String("template")
		return fmt.Sprintf("%s %q", s.Type, tpl)
	default:
		return string(s.Type)
	}
}
