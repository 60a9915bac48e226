package models

import "strings"

// Section names one of the top-level views of the application.
type Section string

const (
	SectionFeed     Section = "feed"
	SectionSearch   Section = "search"
	SectionMessages Section = "messages"
	SectionProfile  Section = "profile"
	SectionChannels Section = "channels"
)

// Sections lists every section in sidebar order.
var Sections = []Section{SectionFeed, SectionSearch, SectionChannels, SectionMessages, SectionProfile}

// ParseSection maps a name onto the closed set of sections; unknown names resolve to the feed.
func ParseSection(name string) Section {
	switch Section(strings.ToLower(strings.TrimSpace(name))) {
	case SectionSearch:
		return SectionSearch
	case SectionMessages:
		return SectionMessages
	case SectionProfile:
		return SectionProfile
	case SectionChannels:
		return SectionChannels
	default:
		return SectionFeed
	}
}

// Valid reports whether s is one of the known sections.
func (s Section) Valid() bool {
	for _, candidate := range Sections {
		if candidate == s {
			return true
		}
	}
	return false
}
