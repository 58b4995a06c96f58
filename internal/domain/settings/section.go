// Package settings defines the per-repository review settings: the eight
// sections, their field descriptor tables and defaults, the aggregate that
// combines them, and the in-memory editor used while a user changes them.
package settings

import (
	"errors"
	"fmt"
)

// Section identifies one independently stored settings category. The string
// value is the wire key used by the backend's "type" parameter.
type Section string

const (
	General          Section = "general"
	AutoReview       Section = "auto_review"
	Chat             Section = "chat"
	CodeGeneration   Section = "code_generation"
	FinishingTouches Section = "finishing_touches"
	KnowledgeBase    Section = "knowledge_base"
	Review           Section = "review"
	Tools            Section = "tools"
)

// ErrUnknownSection is returned when a section key is not one of the eight sections.
var ErrUnknownSection = errors.New("unknown settings section")

// Sections returns all sections in canonical (tab) order.
func Sections() []Section {
	return []Section{General, AutoReview, Review, Chat, CodeGeneration, FinishingTouches, KnowledgeBase, Tools}
}

// ParseSection converts a wire key into a Section.
func ParseSection(key string) (Section, error) {
	s := Section(key)
	if _, ok := sectionInfo[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSection, key)
	}
	return s, nil
}

// Title returns the tab label for the section.
func (s Section) Title() string {
	return sectionInfo[s].title
}

// Description returns the one-line explanation shown above the section form.
func (s Section) Description() string {
	return sectionInfo[s].description
}

type sectionMeta struct {
	title       string
	description string
}

var sectionInfo = map[Section]sectionMeta{
	General:          {"General", "Configure basic repository settings."},
	AutoReview:       {"Auto Review", "Settings for automatic pull request reviews."},
	Review:           {"Review", "Customize the review process and output."},
	Chat:             {"Chat", "Configure chat and issue creation integrations."},
	CodeGeneration:   {"Code Generation", "Settings for generating new code and tests."},
	FinishingTouches: {"Finishing Touches", "Automatically add final touches to pull requests."},
	KnowledgeBase:    {"Knowledge Base", "Control how the AI learns from your repository and other sources."},
	Tools:            {"Tools", "Enable and configure the linters and analyzers run during review."},
}
