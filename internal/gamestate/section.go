package gamestate

import "strings"

type SectionType string

const (
	SectionDefault   = SectionType("Default")
	SectionNoGuitar  = SectionType("NoGuitar")
	SectionRiff      = SectionType("Riff")
	SectionSolo      = SectionType("Solo")
	SectionVerse     = SectionType("Verse")
	SectionChorus    = SectionType("Chorus")
	SectionBridge    = SectionType("Bridge")
	SectionBreakdown = SectionType("Breakdown")
)

// sectionKeywords is checked in order; the first keyword found in the
// lower-cased section name wins.
var sectionKeywords = []struct {
	keyword string
	section SectionType
}{
	{"solo", SectionSolo},
	{"noguitar", SectionNoGuitar},
	{"riff", SectionRiff},
	{"bridge", SectionBridge},
	{"breakdown", SectionBreakdown},
	{"chorus", SectionChorus},
	{"verse", SectionVerse},
}

func ClassifySection(name string) SectionType {
	lower := strings.ToLower(name)
	for _, k := range sectionKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.section
		}
	}
	return SectionDefault
}
