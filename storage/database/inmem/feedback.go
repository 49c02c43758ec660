package inmemdb

import (
	"github.com/trezcool/kiam/core/feedback"
	"github.com/trezcool/kiam/core/paging"
)

func (db *DB) ListFeedbacks(page, limit int) paging.Page[feedback.Feedback] {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return paging.Slice(rows(db.feedbacks), page, limit)
}

func (db *DB) CreateFeedback(nf feedback.NewFeedback) feedback.Feedback {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.feedbackSeq++
	f := feedback.Feedback{
		ID:              db.feedbackSeq,
		Nom:             nf.Nom,
		Sexe:            nf.Sexe,
		Organisation:    nf.Organisation,
		ContenuKiam:     nf.ContenuKiam,
		Formations:      nf.Formations,
		Dortoirs:        nf.Dortoirs,
		Nourriture:      nf.Nourriture,
		NoteGlobale:     nf.NoteGlobale,
		Recommande:      nf.Recommande,
		PointsApprecies: nf.PointsApprecies,
		Suggestions:     nf.Suggestions,
		CreatedAt:       db.now(),
	}
	db.feedbacks[f.ID] = &f
	return f
}

func (db *DB) DeleteFeedback(id int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.feedbacks[id]; !ok {
		return feedback.ErrNotFound
	}
	delete(db.feedbacks, id)
	return nil
}
