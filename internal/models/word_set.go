package models

import "time"

// WordSet is a titled, ordered list of vocabulary words owned by a teacher
type WordSet struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	TeacherID int64     `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Word is one entry of a word set. Positions within a set run 0..n-1.
type Word struct {
	ID        int64  `json:"id"`
	WordSetID int64  `json:"word_set_id"`
	Word      string `json:"word"`
	Position  int    `json:"position"`
}

// WordSetSummary is a dashboard row
type WordSetSummary struct {
	WordSet
	WordCount       int
	SubmissionCount int
}

// WordSetDetail is everything the teacher detail page shows
type WordSetDetail struct {
	WordSet     WordSet
	Words       []Word
	Submissions []Submission
}

// WordTexts returns the words in position order as plain strings
func (d *WordSetDetail) WordTexts() []string {
	texts := make([]string, len(d.Words))
	for i, w := range d.Words {
		texts[i] = w.Word
	}
	return texts
}
