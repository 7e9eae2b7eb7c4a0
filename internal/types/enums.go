package types

import "strings"

// RosterKind identifies which roster policy applies to an event
type RosterKind string

// Roster kinds
const (
	KindSiege      RosterKind = "siege"
	KindDungeonRun RosterKind = "dungeon_run"
)

// JobClass is the closed set of roles a member can claim
type JobClass string

// Job classes, in display order
const (
	JobBlade      JobClass = "Blade"
	JobKnight     JobClass = "Knight"
	JobRanger     JobClass = "Ranger"
	JobJester     JobClass = "Jester"
	JobPsykeeper  JobClass = "Psykeeper"
	JobElementor  JobClass = "Elementor"
	JobBillposter JobClass = "Billposter"
	JobRingmaster JobClass = "Ringmaster"
)

// Dungeon party sizes offered when creating a run
const (
	PartySizeSmall = 8
	PartySizeLarge = 24
)

// Valid values for validation
var ValidRosterKinds = []RosterKind{
	KindSiege, KindDungeonRun,
}

var ValidJobClasses = []JobClass{
	JobBlade, JobKnight, JobRanger, JobJester,
	JobPsykeeper, JobElementor, JobBillposter, JobRingmaster,
}

// Helper functions for validation
func IsValidRosterKind(kind RosterKind) bool {
	for _, k := range ValidRosterKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func IsValidJobClass(job JobClass) bool {
	for _, j := range ValidJobClasses {
		if j == job {
			return true
		}
	}
	return false
}

// ParseJobClass resolves a free-form role name ("blade", "BLADE", " Blade ")
// to its canonical job class.
func ParseJobClass(name string) (JobClass, bool) {
	name = strings.TrimSpace(name)
	for _, j := range ValidJobClasses {
		if strings.EqualFold(string(j), name) {
			return j, true
		}
	}
	return "", false
}
