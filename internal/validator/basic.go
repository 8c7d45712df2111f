package validator

import (
	"regexp"

	"github.com/gidevo/gidevo-api-tool/internal/spec"
)

// Basic-mode findings, in the order they are checked
const (
	MsgInvalidVersion = "Missing or invalid openapi version (expected 3.x)"
	MsgMissingTitle   = "Missing required field: info.title"
	MsgMissingVersion = "Missing required field: info.version"
	MsgNoPaths        = "No paths defined"
)

var versionPattern = regexp.MustCompile(`^3\.\d+`)

// basicRules accumulates every basic violation rather than stopping at the first
func basicRules(doc *spec.Document) []string {
	var errs []string
	if doc == nil {
		doc = &spec.Document{}
	}

	if !versionPattern.MatchString(doc.SpecVersion()) {
		errs = append(errs, MsgInvalidVersion)
	}
	if doc.Info.Title == "" {
		errs = append(errs, MsgMissingTitle)
	}
	if doc.Info.Version == "" {
		errs = append(errs, MsgMissingVersion)
	}
	if len(doc.Paths) == 0 {
		errs = append(errs, MsgNoPaths)
	}
	return errs
}
