package core

import (
	"fmt"
	"strings"
)

// Messages recorded in ValidationResult.Messages.
const (
	MsgEmpty        = "HSN code cannot be empty"
	MsgNotDigits    = "HSN code must contain only digits"
	MsgFormatValid  = "Format is valid"
	MsgExists       = "HSN code exists in master data"
	MsgNotFound     = "HSN code not found in master data"
	msgLengthPrefix = "Invalid length. HSN codes should be"
)

// ParentCheck is the lookup result for one ancestor prefix of a code.
type ParentCheck struct {
	ParentCode  string `json:"parent_code"`
	Exists      bool   `json:"exists"`
	Description string `json:"description,omitempty"`
}

// ValidationResult is the verdict for a single code.
//
// IsValid is true iff the format check passed and the code exists.
// Hierarchy is informational and never changes IsValid.
type ValidationResult struct {
	Code          string        `json:"hsn_code"`
	IsValid       bool          `json:"is_valid"`
	FormatValid   bool          `json:"format_valid"`
	FormatMessage string        `json:"format_message"`
	LengthValid   bool          `json:"length_valid"`
	Exists        bool          `json:"exists"`
	Description   string        `json:"description,omitempty"`
	Hierarchy     []ParentCheck `json:"hierarchy"`
	Messages      []string      `json:"messages"`
}

// NearestParent returns the longest ancestor that exists in the reference
// data, or false if none does.
func (r ValidationResult) NearestParent() (ParentCheck, bool) {
	for i := len(r.Hierarchy) - 1; i >= 0; i-- {
		if r.Hierarchy[i].Exists {
			return r.Hierarchy[i], true
		}
	}
	return ParentCheck{}, false
}

// FoundParents returns the ancestors that exist, shortest first.
func (r ValidationResult) FoundParents() []ParentCheck {
	var out []ParentCheck
	for _, p := range r.Hierarchy {
		if p.Exists {
			out = append(out, p)
		}
	}
	return out
}

// Summary renders a one-paragraph explanation of the verdict.
//
//	Valid HSN code: Live horses
//	Invalid HSN code: HSN code not found in master data
//	Related parent codes found: 01: Live animals; 0101: Live horses
func (r ValidationResult) Summary() string {
	if r.IsValid {
		return "Valid HSN code: " + r.Description
	}

	var reasons []string
	if !r.FormatValid {
		reasons = append(reasons, r.FormatMessage)
	} else if !r.Exists {
		reasons = append(reasons, MsgNotFound)
	}

	var b strings.Builder
	b.WriteString("Invalid HSN code: ")
	b.WriteString(strings.Join(reasons, ", "))

	if found := r.FoundParents(); len(found) > 0 {
		parts := make([]string, len(found))
		for i, p := range found {
			parts[i] = fmt.Sprintf("%s: %s", p.ParentCode, p.Description)
		}
		b.WriteString("\nRelated parent codes found: ")
		b.WriteString(strings.Join(parts, "; "))
	}
	return b.String()
}

// strictLengthMessage is the format failure used under LengthStrict.
func strictLengthMessage(lengths []int) string {
	return fmt.Sprintf("%s %s digits long.", msgLengthPrefix, joinInts(lengths))
}

// advisoryLengthMessage is the format message used under LengthAdvisory when
// the code length is not one the reference data uses.
func advisoryLengthMessage(n int, lengths []int) string {
	return fmt.Sprintf("%s (length %d is not one of the known HSN code lengths: %s)", MsgFormatValid, n, joinInts(lengths))
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
