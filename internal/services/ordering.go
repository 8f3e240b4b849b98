package services

// Ordering engine: every structural edit to a question list goes through one
// of these functions, and each of them leaves Order equal to 1..N by slice
// position. Inputs are never mutated; callers get a fresh slice back.
//
// Out-of-range indexes and positions are rejected as no-ops rather than
// clamped or raised: they can only come from UI bounds mistakes, not from
// user input.

const duplicateMarker = " (Copy)"

// AppendQuestion adds q at the end with the next order value.
func AppendQuestion(qs []Question, q Question) []Question {
	out := cloneQuestions(qs)
	q.Order = len(out) + 1
	return append(out, q)
}

// RemoveQuestionAt drops the question at index and renumbers the rest.
func RemoveQuestionAt(qs []Question, index int) []Question {
	if index < 0 || index >= len(qs) {
		return qs
	}
	out := make([]Question, 0, len(qs)-1)
	for i, q := range qs {
		if i == index {
			continue
		}
		out = append(out, cloneQuestion(q))
	}
	return renumber(out)
}

// MoveByDragDrop relocates the question at fromIndex to toIndex with splice
// semantics, shifting the questions in between by one.
func MoveByDragDrop(qs []Question, fromIndex, toIndex int) []Question {
	if fromIndex < 0 || fromIndex >= len(qs) || toIndex < 0 || toIndex >= len(qs) {
		return qs
	}
	out := cloneQuestions(qs)
	moved := out[fromIndex]
	out = append(out[:fromIndex], out[fromIndex+1:]...)
	rest := append([]Question(nil), out[toIndex:]...)
	out = append(append(out[:toIndex], moved), rest...)
	return renumber(out)
}

// MoveByExplicitOrder honors a typed-in order value. A requestedOrder outside
// [1, N] leaves the list untouched; anything else is a move to that position.
func MoveByExplicitOrder(qs []Question, currentIndex, requestedOrder int) []Question {
	if requestedOrder < 1 || requestedOrder > len(qs) {
		return qs
	}
	return MoveByDragDrop(qs, currentIndex, requestedOrder-1)
}

// DuplicateQuestionAt clones the question at index under a fresh id, marks
// the copy in its text, and appends it at the end.
func DuplicateQuestionAt(qs []Question, index int) []Question {
	if index < 0 || index >= len(qs) {
		return qs
	}
	dup := cloneQuestion(qs[index])
	dup.ID = newQuestionID()
	dup.Text += duplicateMarker
	return AppendQuestion(qs, dup)
}

func renumber(qs []Question) []Question {
	for i := range qs {
		qs[i].Order = i + 1
	}
	return qs
}
