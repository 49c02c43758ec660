package inmemdb

import (
	"fmt"

	"github.com/trezcool/kiam/core/paging"
	"github.com/trezcool/kiam/core/seminarist"
)

// matricule formats the server-assigned code, e.g. KIAM-2026-0001.
func (db *DB) matricule(seq int) string {
	return fmt.Sprintf("KIAM-%d-%04d", db.year, seq)
}

func (db *DB) ListParticipants(page, limit int) paging.Page[seminarist.Participant] {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return paging.Slice(rows(db.participants), page, limit)
}

func (db *DB) GetParticipant(id int) (seminarist.Participant, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if p, ok := db.participants[id]; ok {
		return *p, nil
	}
	return seminarist.Participant{}, seminarist.ErrNotFound
}

func (db *DB) participantByMatricule(matricule string) (*seminarist.Participant, bool) {
	for _, p := range db.participants {
		if p.Matricule == matricule {
			return p, true
		}
	}
	return nil, false
}

// CreateParticipant stores a validated np and assigns its id and matricule.
func (db *DB) CreateParticipant(np seminarist.NewParticipant) seminarist.Participant {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.participantSeq++
	now := db.now()
	p := seminarist.Participant{
		ID:                 db.participantSeq,
		Matricule:          db.matricule(db.participantSeq),
		Nom:                np.Nom,
		Prenom:             np.Prenom,
		Sexe:               np.Sexe,
		Age:                np.Age,
		NiveauAcademique:   np.NiveauAcademique,
		Niveau:             np.Niveau,
		Dortoir:            np.Dortoir,
		ContactParent:      np.ContactParent,
		ContactSeminariste: np.ContactSeminariste,
		Allergie:           np.Allergie,
		AntecedentMedical:  np.AntecedentMedical,
		PhotoURL:           np.PhotoURL,
		NoteEntree:         np.NoteEntree,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	db.participants[p.ID] = &p
	return p
}

// UpdateParticipant only changes the non-nil fields of up.
func (db *DB) UpdateParticipant(id int, up seminarist.UpdateParticipant) (seminarist.Participant, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	orig, ok := db.participants[id]
	if !ok {
		return seminarist.Participant{}, seminarist.ErrNotFound
	}
	p := up.Apply(*orig)
	p.UpdatedAt = db.now()
	db.participants[id] = &p
	return p, nil
}

// DeleteParticipant also drops the participant's notes.
func (db *DB) DeleteParticipant(id int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.participants[id]
	if !ok {
		return seminarist.ErrNotFound
	}
	for nid, n := range db.notes {
		if n.Matricule == p.Matricule {
			delete(db.notes, nid)
		}
	}
	delete(db.participants, id)
	return nil
}

// ReplaceParticipant overwrites every editable field; the id, matricule and creation date are kept.
func (db *DB) ReplaceParticipant(id int, np seminarist.NewParticipant) (seminarist.Participant, error) {
	return db.UpdateParticipant(id, seminarist.UpdateParticipant{
		Nom:                &np.Nom,
		Prenom:             &np.Prenom,
		Sexe:               &np.Sexe,
		Age:                &np.Age,
		NiveauAcademique:   &np.NiveauAcademique,
		Niveau:             &np.Niveau,
		Dortoir:            &np.Dortoir,
		ContactParent:      &np.ContactParent,
		ContactSeminariste: &np.ContactSeminariste,
		Allergie:           &np.Allergie,
		AntecedentMedical:  &np.AntecedentMedical,
		PhotoURL:           &np.PhotoURL,
		NoteEntree:         np.NoteEntree,
	})
}
