package typed

import "github.com/aretw0/ubrain/pkg/core"

// Task is a record of the tasks entity.
type Task struct {
	Title      string   `json:"title"`
	Status     string   `json:"status,omitempty"`
	ProjectIDs []string `json:"project_ids,omitempty"`
	Area       string   `json:"area,omitempty"`
	Priority   string   `json:"priority,omitempty"`
	Due        string   `json:"due,omitempty"`
	Scheduled  string   `json:"scheduled,omitempty"`
	Energy     string   `json:"energy,omitempty"`
	Effort     string   `json:"effort,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Completed  bool     `json:"completed"`
	Created    string   `json:"created,omitempty"`
	Updated    string   `json:"updated,omitempty"`
}

// Project is a record of the projects entity.
type Project struct {
	Title    string   `json:"title"`
	Status   string   `json:"status,omitempty"`
	Area     string   `json:"area,omitempty"`
	Due      string   `json:"due,omitempty"`
	Progress float64  `json:"progress"`
	Lead     string   `json:"lead,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Note is a record of the notes entity.
type Note struct {
	Title      string   `json:"title"`
	Type       string   `json:"type,omitempty"`
	Area       string   `json:"area,omitempty"`
	ProjectIDs []string `json:"project_ids,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	URL        string   `json:"url,omitempty"`
	Updated    string   `json:"updated,omitempty"`
}

// Course is a record of the courses study collection.
type Course struct {
	Title    string   `json:"title"`
	Status   string   `json:"status,omitempty"`
	Area     string   `json:"area,omitempty"`
	Progress float64  `json:"progress"`
	Provider string   `json:"provider,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Session is a record of the sessions study collection. Course holds an
// option name or CourseIDs relation targets, depending on the column.
type Session struct {
	Date      string   `json:"date"`
	Duration  float64  `json:"duration"`
	Course    string   `json:"course,omitempty"`
	CourseIDs []string `json:"course_ids,omitempty"`
	Topic     string   `json:"topic,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// Flashcard is a record of the flashcards study collection.
type Flashcard struct {
	Front    string  `json:"front"`
	Back     string  `json:"back"`
	Deck     string  `json:"deck,omitempty"`
	Ease     float64 `json:"ease"`
	Interval float64 `json:"interval"`
	Due      string  `json:"due,omitempty"`
}

// Tasks returns the typed tasks collection.
func Tasks(b Backend) *Collection[Task] { return NewCollection[Task](b, core.Tasks) }

// Projects returns the typed projects collection.
func Projects(b Backend) *Collection[Project] { return NewCollection[Project](b, core.Projects) }

// Notes returns the typed notes collection.
func Notes(b Backend) *Collection[Note] { return NewCollection[Note](b, core.Notes) }

// Courses returns the typed courses collection.
func Courses(b Backend) *Collection[Course] { return NewCollection[Course](b, core.Courses) }

// Sessions returns the typed sessions collection.
func Sessions(b Backend) *Collection[Session] { return NewCollection[Session](b, core.Sessions) }

// Flashcards returns the typed flashcards collection.
func Flashcards(b Backend) *Collection[Flashcard] {
	return NewCollection[Flashcard](b, core.Flashcards)
}
