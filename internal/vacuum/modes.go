package vacuum

// CleaningMode is the closed set of cleaning modes a zone can request. The
// string values are the option strings the device's select entities accept.
type CleaningMode int

const (
	ModeSweeping CleaningMode = iota
	ModeMopping
	ModeSweepingAndMopping
	ModeMopAfterSweep
	ModeCleanGenius
	ModeCleanGeniusDeep
)

var modeStrings = map[CleaningMode]string{
	ModeSweeping:           "sweeping",
	ModeMopping:            "mopping",
	ModeSweepingAndMopping: "sweeping_and_mopping",
	ModeMopAfterSweep:      "mopping_after_sweeping",
	ModeCleanGenius:        "routine_cleaning",
	ModeCleanGeniusDeep:    "deep_cleaning",
}

func (m CleaningMode) String() string {
	if s, ok := modeStrings[m]; ok {
		return s
	}
	return "sweeping"
}

// ParseCleaningMode maps a config string to a CleaningMode. The second return
// value is false for unrecognized strings, in which case the mode degrades to
// sweeping.
func ParseCleaningMode(s string) (CleaningMode, bool) {
	for mode, str := range modeStrings {
		if str == s {
			return mode, true
		}
	}
	return ModeSweeping, s == ""
}

// Sequential reports whether the mode mops after sweeping rather than in one
// pass. Zones with sequential modes can be merged into a single combined run.
func (m CleaningMode) Sequential() bool {
	return m == ModeMopAfterSweep || m == ModeCleanGenius || m == ModeCleanGeniusDeep
}

// CleanGenius reports whether the mode is driven through the CleanGenius
// selector rather than the plain cleaning mode selector.
func (m CleaningMode) CleanGenius() bool {
	return m == ModeCleanGenius || m == ModeCleanGeniusDeep
}

// Wet reports whether the mode involves mopping.
func (m CleaningMode) Wet() bool {
	return m != ModeSweeping
}

// RoomSetting is the wet/dry option used for a room under customized cleaning.
func (m CleaningMode) RoomSetting() string {
	if m.Wet() {
		return modeStrings[ModeSweepingAndMopping]
	}
	return modeStrings[ModeSweeping]
}

// Repeats is the cleaning repeat count option for a room under customized
// cleaning. Only the deep CleanGenius mode cleans twice.
func (m CleaningMode) Repeats() string {
	if m == ModeCleanGeniusDeep {
		return "2x"
	}
	return "1x"
}
