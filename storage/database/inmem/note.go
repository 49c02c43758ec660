package inmemdb

import (
	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/grading"
	"github.com/trezcool/kiam/core/paging"
)

var errUnknownMatricule = core.NewValidationError(nil, core.FieldError{Field: "matricule", Error: "matricule inconnu"})

// ListNotes pages through the notes, restricted to one participant when matricule is set.
func (db *DB) ListNotes(page, limit int, matricule string) paging.Page[grading.Note] {
	db.mu.RLock()
	defer db.mu.RUnlock()

	notes := rows(db.notes)
	if matricule != "" {
		notes = grading.FilterNotes(notes, grading.QueryFilter{Matricule: matricule})
	}
	return paging.Slice(notes, page, limit)
}

// CreateNote enforces one note per (matricule, libelle): a filled slot is grading.ErrNoteExists.
func (db *DB) CreateNote(nn grading.NewNote) (grading.Note, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.participantByMatricule(nn.Matricule)
	if !ok {
		return grading.Note{}, errUnknownMatricule
	}
	slot := grading.SlotKey(nn.Matricule, nn.Libelle)
	for _, n := range db.notes {
		if n.Slot() == slot {
			return grading.Note{}, grading.ErrNoteExists
		}
	}

	db.noteSeq++
	n := grading.Note{
		ID:          db.noteSeq,
		Matricule:   nn.Matricule,
		Libelle:     nn.Libelle,
		Note:        nn.Note,
		Observation: nn.Observation,
	}
	db.notes[n.ID] = &n

	// the entrance test is mirrored on the participant
	if n.Libelle == grading.LibelleEntree {
		score := n.Note
		p.NoteEntree = &score
		p.UpdatedAt = db.now()
	}
	return n, nil
}

func (db *DB) UpdateNote(id int, un grading.UpdateNote) (grading.Note, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	n, ok := db.notes[id]
	if !ok {
		return grading.Note{}, grading.ErrNoteNotFound
	}
	n.Note = un.Note
	n.Observation = un.Observation
	if n.Libelle == grading.LibelleEntree {
		if p, ok := db.participantByMatricule(n.Matricule); ok {
			score := n.Note
			p.NoteEntree = &score
			p.UpdatedAt = db.now()
		}
	}
	return *n, nil
}

func (db *DB) DeleteNote(id int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.notes[id]; !ok {
		return grading.ErrNoteNotFound
	}
	delete(db.notes, id)
	return nil
}

// bulletins computes one bulletin per participant: the average of their notes
// and the rank by descending average across the seminar. Callers hold the lock.
func (db *DB) bulletins() []grading.Bulletin {
	byMatricule := make(map[string][]grading.Note, len(db.participants))
	for _, n := range rows(db.notes) {
		byMatricule[n.Matricule] = append(byMatricule[n.Matricule], n)
	}

	participants := rows(db.participants)
	averages := make(map[string]float64, len(participants))
	for _, p := range participants {
		notes := byMatricule[p.Matricule]
		scores := make([]float64, 0, len(notes))
		for _, n := range notes {
			scores = append(scores, n.Note)
		}
		averages[p.Matricule] = grading.Average(scores)
	}
	ranks := grading.Rank(averages)

	bs := make([]grading.Bulletin, 0, len(participants))
	for _, p := range participants {
		bs = append(bs, grading.Bulletin{
			Matricule:       p.Matricule,
			Nom:             p.Nom,
			Prenom:          p.Prenom,
			Niveau:          p.Niveau,
			MoyenneGenerale: averages[p.Matricule],
			Rang:            ranks[p.Matricule],
			Notes:           byMatricule[p.Matricule],
		})
	}
	return bs
}

func (db *DB) ListBulletins(page, limit int) paging.Page[grading.Bulletin] {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return paging.Slice(db.bulletins(), page, limit)
}

func (db *DB) GetBulletin(matricule string) (grading.Bulletin, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, b := range db.bulletins() {
		if b.Matricule == matricule {
			return b, nil
		}
	}
	return grading.Bulletin{}, grading.ErrBulletinNotFound
}
