package models

import (
	"errors"
	"strings"
	"time"
)

var ErrIncorrectField = errors.New("form field must be name=value")

// Field is a single form answer.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FieldsFromStrings parses name=value pairs as typed on the command line.
func FieldsFromStrings(s []string) ([]Field, error) {
	fields := make([]Field, len(s))
	for n, item := range s {
		parts := strings.Split(item, "=")
		if len(parts) != 2 || parts[0] == "" {
			return nil, ErrIncorrectField
		}
		fields[n] = Field{Name: parts[0], Value: parts[1]}
	}
	return fields, nil
}

// Form is a structured health record submitted as JSON.
type Form struct {
	Name        string    `json:"name"`
	Fields      []Field   `json:"fields"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Get returns the value of the first field called name.
func (f Form) Get(name string) (string, bool) {
	for _, x := range f.Fields {
		if x.Name == name {
			return x.Value, true
		}
	}
	return "", false
}
