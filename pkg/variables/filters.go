package variables

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arthur-debert/packsmith/pkg/placeholders"
)

// Filter transforms a resolved value
type Filter interface {
	Apply(value string, v *Variables) (string, error)
	References() []string
}

// RegexFilter either selects from the first match or replaces matches.
// Select and Replace may use \1 or $1 group references. When nothing
// matches, Default is returned if set, otherwise the value is unchanged.
type RegexFilter struct {
	Pattern         string
	Select          string
	Replace         string
	Default         string
	Global          bool
	CaseInsensitive bool
}

var backrefPattern = regexp.MustCompile(`\\(\d)`)

func (f RegexFilter) Apply(value string, v *Variables) (string, error) {
	pattern := v.Replace(f.Pattern)
	if f.CaseInsensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", err
	}

	loc := re.FindStringSubmatchIndex(value)
	if loc == nil {
		if f.Default != "" {
			return v.Replace(f.Default), nil
		}
		return value, nil
	}

	if f.Select != "" {
		tmpl := backrefPattern.ReplaceAllString(f.Select, "$${$1}")
		return string(re.ExpandString(nil, tmpl, value, loc)), nil
	}

	repl := backrefPattern.ReplaceAllString(f.Replace, "$${$1}")
	if f.Global {
		return re.ReplaceAllString(value, repl), nil
	}
	first := string(re.ExpandString(nil, repl, value, loc))
	return value[:loc[0]] + first + value[loc[1]:], nil
}

func (f RegexFilter) References() []string {
	return append(placeholders.References(f.Pattern), placeholders.References(f.Default)...)
}

// LocationFilter turns the value into a clean path, joined to BaseDir when
// the value is relative.
type LocationFilter struct {
	BaseDir string
}

func (f LocationFilter) Apply(value string, v *Variables) (string, error) {
	value = strings.TrimSpace(value)
	if base := v.Replace(f.BaseDir); base != "" && !filepath.IsAbs(value) {
		value = filepath.Join(base, value)
	}
	return filepath.Clean(value), nil
}

func (f LocationFilter) References() []string {
	return placeholders.References(f.BaseDir)
}
