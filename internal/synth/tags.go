// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import "strings"

// fallbackTag is applied when no keyword category matches.
const fallbackTag = "general"

// tagCategories maps topic tags to the keywords that select them.
// Ordered so tagging is deterministic.
var tagCategories = []struct {
	tag      string
	keywords []string
}{
	{"signs", []string{"road sign", "traffic sign", "warning sign", "regulatory sign", "yield", "stop sign"}},
	{"signals", []string{"traffic signal", "traffic light", "flashing", "yellow light", "red light", "green light"}},
	{"speed", []string{"speed limit", "mph", "speeding", "minimum speed", "maximum speed", "too fast"}},
	{"parking", []string{"parking", "parallel park", "handicap parking", "no parking", "fire hydrant"}},
	{"safetyDevices", []string{"seat belt", "child restraint", "airbag", "helmet", "safety device"}},
	{"licensing", []string{"license", "permit", "driver license", "commercial", "cdl", "suspension", "revocation"}},
	{"alcohol", []string{"dui", "dwi", "alcohol", "drunk driving", "blood alcohol", "bac", "impaired"}},
	{"motorcycles", []string{"motorcycle", "moped", "lane splitting"}},
	{"weather", []string{"fog", "rain", "snow", "ice", "slick", "visibility", "storm", "hazardous weather"}},
}

// deriveTags matches the keyword table against the section title first,
// then the stem and source text. Every question carries at least one
// tag.
func deriveTags(sectionTitle, stem, unit string) []string {
	title := strings.ToLower(sectionTitle)
	body := strings.ToLower(stem + " " + unit)

	var tags []string
	have := make(map[string]bool)
	add := func(tag string) {
		if !have[tag] {
			have[tag] = true
			tags = append(tags, tag)
		}
	}

	for _, cat := range tagCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(title, kw) {
				add(cat.tag)
				break
			}
		}
	}
	for _, cat := range tagCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(body, kw) {
				add(cat.tag)
				break
			}
		}
	}

	if len(tags) == 0 {
		return []string{fallbackTag}
	}
	if len(tags) > 3 {
		tags = tags[:3]
	}
	return tags
}
