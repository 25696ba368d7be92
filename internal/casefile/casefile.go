// Package casefile derives a case identifier and an anatomical role from a
// surface filename. Everything here is pure string inspection; nothing
// touches the filesystem.
package casefile

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Role is the anatomical arch a surface belongs to.
type Role int

const (
	// RoleUnknown means no keyword matched; such files are never paired.
	RoleUnknown Role = iota
	RoleUpper
	RoleLower
)

func (r Role) String() string {
	switch r {
	case RoleUpper:
		return "upper"
	case RoleLower:
		return "lower"
	default:
		return "unknown"
	}
}

// Keywords holds the substrings that mark a filename as upper or lower.
// Matching is case-insensitive.
type Keywords struct {
	Upper []string
	Lower []string
}

// DefaultKeywords returns the stock English, Russian and transliterated
// keyword sets, plus the "_u"/"_l" suffix abbreviations.
func DefaultKeywords() Keywords {
	return Keywords{
		Upper: []string{"upper", "верх", "verh", "top", "_u"},
		Lower: []string{"lower", "низ", "niz", "bottom", "_l"},
	}
}

// CaseID is an optional case identifier.
type CaseID struct {
	Value int
	Valid bool
}

func (c CaseID) String() string {
	if !c.Valid {
		return "none"
	}
	return strconv.Itoa(c.Value)
}

// Info is the result of parsing one filename.
type Info struct {
	Name   string
	CaseID CaseID
	Role   Role
}

// Parse extracts both the case id and the role from name.
func Parse(name string, kw Keywords) Info {
	return Info{Name: name, CaseID: ExtractCaseID(name), Role: DetectRole(name, kw)}
}

// ExtractCaseID reads the leading run of decimal digits of the filename stem,
// ignoring leading zeros, so "007_upper.stl" gives 7 and "000_x.stl" gives 0.
// Names that do not start with a digit, or whose digits overflow an int,
// give an invalid CaseID.
func ExtractCaseID(name string) CaseID {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	end := 0
	for end < len(stem) && stem[end] >= '0' && stem[end] <= '9' {
		end++
	}
	if end == 0 {
		return CaseID{}
	}
	digits := strings.TrimLeft(stem[:end], "0")
	if digits == "" {
		return CaseID{Value: 0, Valid: true}
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return CaseID{}
	}
	return CaseID{Value: v, Valid: true}
}

// DetectRole matches the lower-cased filename against the keyword sets.
//
// Upper keywords are checked first, so a name matching both sets (for
// example "top_lower.stl") is upper. This ordering is a policy choice, not
// something the keywords imply.
func DetectRole(name string, kw Keywords) Role {
	n := strings.ToLower(name)
	if containsAny(n, kw.Upper) {
		return RoleUpper
	}
	if containsAny(n, kw.Lower) {
		return RoleLower
	}
	return RoleUnknown
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}
