package entity

import (
	"fmt"

	"github.com/aretw0/ubrain/pkg/core"
)

// Display defaults applied on read.
const (
	DefaultTaskStatus    = "Por hacer"
	DefaultTaskPriority  = "Media"
	DefaultProjectStatus = "Activo"
	DefaultCourseStatus  = "Activo"
	DefaultFlashcardEase = 2.5
	defaultZero          = 0.0
)

var specs = map[core.EntityName]Spec{}

func register(s Spec) {
	if _, dup := specs[s.Entity]; dup {
		panic(fmt.Sprintf("entity %s registered twice", s.Entity))
	}
	specs[s.Entity] = s
}

func init() {
	register(define(core.Tasks).
		with(
			titled(),
			fallback(choice("status"), DefaultTaskStatus),
			relation("project"),
			choice("area"),
			fallback(choice("priority"), DefaultTaskPriority),
			dated("due"),
			dated("scheduled"),
			choice("energy"),
			choice("effort"),
			taggable("tags"),
			flag("completed"),
			readOnly(dated("created")),
		).
		stamped().build())

	register(define(core.Projects).
		with(
			titled(),
			fallback(choice("status"), DefaultProjectStatus),
			choice("area"),
			dated("due"),
			fallback(numeric("progress"), defaultZero),
			choice("lead"),
			taggable("tags"),
		).build())

	register(define(core.Areas).
		with(titled(), choice("owner"), text("mission"), taggable("tags")).
		build())

	register(define(core.Notes).
		with(titled(), choice("type"), choice("area"), relation("project"), taggable("tags"), link("url")).
		stamped().build())

	register(define(core.Goals).
		with(titled(), choice("horizon"), fallback(numeric("progress"), defaultZero)).
		trait(areaTagged()).
		build())

	register(define(core.Habits).
		with(titled(), fallback(numeric("streak"), defaultZero), dated("last"), choice("cadence")).
		build())

	register(define(core.Reviews).
		with(titled(), text("period"), choice("mood"), text("highlights"), text("next")).
		build())

	register(define(core.Calendar).
		with(titled(), required(dated("start")), dated("end"), relation("related")).
		build())

	register(define(core.Courses).
		with(titled(), fallback(choice("status"), DefaultCourseStatus)).
		with(choice("area"), fallback(numeric("progress"), defaultZero), choice("provider"), taggable("tags")).
		build())

	register(define(core.Modules).trait(ordered("course")).build())

	register(define(core.Lessons).trait(ordered("module")).build())

	register(define(core.Readings).
		with(titled(), choice("type"), linked("course"), choice("status"), choice("source"), taggable("tags"), dated("due")).
		build())

	register(define(core.StudyNotes).
		with(titled(), linked("course"), linked("reading"), taggable("concepts"), taggable("tags")).
		stamped().build())

	register(define(core.Resources).
		with(titled(), choice("type"), link("link"), linked("course"), taggable("tags")).
		build())

	register(define(core.Exams).
		with(titled(), linked("course"), dated("date"), fallback(numeric("weight"), defaultZero), choice("status"), taggable("tags")).
		build())

	register(define(core.Flashcards).
		with(
			required(text("front")),
			required(text("back")),
			choice("deck"),
			fallback(numeric("ease"), DefaultFlashcardEase),
			fallback(numeric("interval"), defaultZero),
			dated("due"),
		).build())

	register(define(core.Sessions).
		with(
			required(dated("date")),
			fallback(numeric("duration"), defaultZero),
			linked("course"),
			text("topic"),
			text("notes"),
		).build())
}

// Lookup returns the specification of e.
func Lookup(e core.EntityName) (Spec, bool) {
	s, ok := specs[e]
	return s, ok
}

// Aliases lists the aliases of e, or nil for unknown entities.
func Aliases(e core.EntityName) []string {
	s, ok := specs[e]
	if !ok {
		return nil
	}
	return s.Aliases()
}
