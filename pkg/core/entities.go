package core

import (
	"fmt"
	"slices"
	"strings"
)

// EntityName identifies a logical entity or a study collection.
type EntityName string

const (
	Tasks    EntityName = "tasks"
	Projects EntityName = "projects"
	Areas    EntityName = "areas"
	Notes    EntityName = "notes"
	Goals    EntityName = "goals"
	Habits   EntityName = "habits"
	Reviews  EntityName = "reviews"
	Calendar EntityName = "calendar"

	Courses    EntityName = "courses"
	Modules    EntityName = "modules"
	Lessons    EntityName = "lessons"
	Readings   EntityName = "readings"
	StudyNotes EntityName = "study_notes"
	Resources  EntityName = "resources"
	Exams      EntityName = "exams"
	Flashcards EntityName = "flashcards"
	Sessions   EntityName = "sessions"
)

// TopLevelEntities lists the entities stored directly in a Mapping.
var TopLevelEntities = []EntityName{Tasks, Projects, Areas, Notes, Goals, Habits, Reviews, Calendar}

// StudyCollections lists the collections nested under "studies".
var StudyCollections = []EntityName{Courses, Modules, Lessons, Readings, StudyNotes, Resources, Exams, Flashcards, Sessions}

// AllEntities returns every entity, top-level first.
func AllEntities() []EntityName {
	return slices.Concat(TopLevelEntities, StudyCollections)
}

// IsStudy reports whether e is a study collection.
func (e EntityName) IsStudy() bool {
	return slices.Contains(StudyCollections, e)
}

// Known reports whether e is a recognised entity or collection.
func (e EntityName) Known() bool {
	return e.IsStudy() || slices.Contains(TopLevelEntities, e)
}

// Path returns the entity's location in a mapping document,
// e.g. "tasks" or "studies/courses".
func (e EntityName) Path() string {
	if e.IsStudy() {
		return "studies/" + string(e)
	}
	return string(e)
}

// ParseEntity validates a user-supplied entity name. Study collections
// may be given with their "studies/" path.
func ParseEntity(s string) (EntityName, error) {
	e := EntityName(s)
	if rest, ok := strings.CutPrefix(s, studiesKey+"/"); ok {
		e = EntityName(rest)
		if !e.IsStudy() {
			return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
		}
	}
	if !e.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
	}
	return e, nil
}
