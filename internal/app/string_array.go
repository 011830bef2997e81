package app

import (
	"strings"
)

// StringArray is a flag.Value collecting every occurrence of a repeatable flag.
type StringArray []string

func (a *StringArray) Set(s string) error {
	*a = append(*a, s)
	return nil
}

func (a *StringArray) String() string {
	return strings.Join(*a, ",")
}
