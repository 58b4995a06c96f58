package model

// ActiveStatus toggles an integration (Jira, Linear).
type ActiveStatus string

const (
	ActiveAuto     ActiveStatus = "AUTO"
	ActiveEnabled  ActiveStatus = "ENABLED"
	ActiveDisabled ActiveStatus = "DISABLED"
)

// ScopeStatus controls how far a knowledge source reaches. It shares its
// values with ActiveStatus but is a separate concept.
type ScopeStatus string

const (
	ScopeAuto     ScopeStatus = "AUTO"
	ScopeEnabled  ScopeStatus = "ENABLED"
	ScopeDisabled ScopeStatus = "DISABLED"
)

// ProfileSetting is the review strictness profile.
type ProfileSetting string

const (
	ProfileChill    ProfileSetting = "CHILL"
	ProfileStrict   ProfileSetting = "STRICT"
	ProfileBalanced ProfileSetting = "BALANCED"
)

// ToolLanguageLevel is the strictness level passed to LanguageTool.
type ToolLanguageLevel string

const (
	LanguageLevelDefault ToolLanguageLevel = "DEFAULT"
	LanguageLevelStrict  ToolLanguageLevel = "STRICT"
	LanguageLevelLenient ToolLanguageLevel = "LENIENT"
)

// PhpStanLevel is the PHPStan rule level.
type PhpStanLevel string

const (
	PhpStanLevel0   PhpStanLevel = "LEVEL_0"
	PhpStanLevel1   PhpStanLevel = "LEVEL_1"
	PhpStanLevel2   PhpStanLevel = "LEVEL_2"
	PhpStanLevel3   PhpStanLevel = "LEVEL_3"
	PhpStanLevel4   PhpStanLevel = "LEVEL_4"
	PhpStanLevel5   PhpStanLevel = "LEVEL_5"
	PhpStanLevel6   PhpStanLevel = "LEVEL_6"
	PhpStanLevel7   PhpStanLevel = "LEVEL_7"
	PhpStanLevel8   PhpStanLevel = "LEVEL_8"
	PhpStanLevelMax PhpStanLevel = "LEVEL_MAX"
)

// ActiveStatuses lists every ActiveStatus in display order.
func ActiveStatuses() []ActiveStatus {
	return []ActiveStatus{ActiveAuto, ActiveEnabled, ActiveDisabled}
}

// ScopeStatuses lists every ScopeStatus in display order.
func ScopeStatuses() []ScopeStatus {
	return []ScopeStatus{ScopeAuto, ScopeEnabled, ScopeDisabled}
}

// ProfileSettings lists every ProfileSetting in display order.
func ProfileSettings() []ProfileSetting {
	return []ProfileSetting{ProfileChill, ProfileStrict, ProfileBalanced}
}

// ToolLanguageLevels lists every ToolLanguageLevel in display order.
func ToolLanguageLevels() []ToolLanguageLevel {
	return []ToolLanguageLevel{LanguageLevelDefault, LanguageLevelStrict, LanguageLevelLenient}
}

// PhpStanLevels lists every PhpStanLevel from least to most strict.
func PhpStanLevels() []PhpStanLevel {
	return []PhpStanLevel{
		PhpStanLevel0, PhpStanLevel1, PhpStanLevel2, PhpStanLevel3, PhpStanLevel4,
		PhpStanLevel5, PhpStanLevel6, PhpStanLevel7, PhpStanLevel8, PhpStanLevelMax,
	}
}
