package inmemdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kiam/core/account"
	"github.com/trezcool/kiam/core/feedback"
	"github.com/trezcool/kiam/core/grading"
	"github.com/trezcool/kiam/core/seminarist"
)

func newDB() *DB {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	return New(WithYear(2026), WithClock(func() time.Time { return now }))
}

func newParticipant(nom, prenom string) seminarist.NewParticipant {
	np := seminarist.NewParticipant{
		Nom: nom, Prenom: prenom, Sexe: "F", Age: 14,
		NiveauAcademique: "3e", Dortoir: "D1", ContactParent: "+225 0102030405",
	}
	np.Clean()
	return np
}

func TestParticipants(t *testing.T) {
	db := newDB()
	p1 := db.CreateParticipant(newParticipant("Koné", "Awa"))
	p2 := db.CreateParticipant(newParticipant("Traoré", "Issa"))

	assert.Equal(t, "KIAM-2026-0001", p1.Matricule)
	assert.Equal(t, "KIAM-2026-0002", p2.Matricule)
	assert.Equal(t, seminarist.DefaultMedical, p1.Allergie)

	page := db.ListParticipants(1, 1)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, p1.ID, page.Data[0].ID)

	dortoir := "D2"
	p, err := db.UpdateParticipant(p1.ID, seminarist.UpdateParticipant{Dortoir: &dortoir})
	require.NoError(t, err)
	assert.Equal(t, "D2", p.Dortoir)
	assert.Equal(t, "Awa", p.Prenom)

	p, err = db.ReplaceParticipant(p2.ID, newParticipant("Traoré", "Moussa"))
	require.NoError(t, err)
	assert.Equal(t, "Moussa", p.Prenom)
	assert.Equal(t, p2.Matricule, p.Matricule)

	_, err = db.UpdateParticipant(42, seminarist.UpdateParticipant{Dortoir: &dortoir})
	assert.Equal(t, seminarist.ErrNotFound, err)
	assert.Equal(t, seminarist.ErrNotFound, db.DeleteParticipant(42))
}

func TestNotesAndBulletins(t *testing.T) {
	db := newDB()
	awa := db.CreateParticipant(newParticipant("Koné", "Awa"))
	issa := db.CreateParticipant(newParticipant("Traoré", "Issa"))
	moussa := db.CreateParticipant(newParticipant("Diallo", "Moussa"))

	mustNote := func(m, l string, score float64) grading.Note {
		n, err := db.CreateNote(grading.NewNote{Matricule: m, Libelle: l, Note: score})
		require.NoError(t, err)
		return n
	}
	mustNote(awa.Matricule, grading.LibelleEntree, 15)
	mustNote(awa.Matricule, grading.LibelleConduite, 17)
	mustNote(issa.Matricule, grading.LibelleConduite, 16)
	mustNote(moussa.Matricule, grading.LibelleConduite, 12)

	_, err := db.CreateNote(grading.NewNote{Matricule: awa.Matricule, Libelle: grading.LibelleConduite, Note: 3})
	assert.Equal(t, grading.ErrNoteExists, err, "one note per slot")
	_, err = db.CreateNote(grading.NewNote{Matricule: "KIAM-2026-9999", Libelle: grading.LibelleConduite})
	assert.Error(t, err)

	p, err := db.GetParticipant(awa.ID)
	require.NoError(t, err)
	require.NotNil(t, p.NoteEntree)
	assert.Equal(t, 15.0, *p.NoteEntree, "entrance note mirrored")

	assert.Equal(t, 2, db.ListNotes(1, 10, awa.Matricule).Total)

	b, err := db.GetBulletin(awa.Matricule)
	require.NoError(t, err)
	assert.Equal(t, 16.0, b.MoyenneGenerale)
	assert.Equal(t, 1, b.Rang, "ties share the best rank")
	b, err = db.GetBulletin(issa.Matricule)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Rang)
	b, err = db.GetBulletin(moussa.Matricule)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Rang)
	assert.Equal(t, "Assez bien", b.Mention())

	require.NoError(t, db.DeleteParticipant(awa.ID))
	assert.Equal(t, 0, db.ListNotes(1, 10, awa.Matricule).Total, "notes deleted with their participant")
	_, err = db.GetBulletin(awa.Matricule)
	assert.Equal(t, grading.ErrBulletinNotFound, err)
}

func TestUsers(t *testing.T) {
	db := newDB()
	nu := account.NewUser{Username: "admin", Email: "admin@kiam.test", Nom: "Admin", Prenom: "Kiam", Role: account.RoleAdministration, Password: "Ph0n3-Kiw1!"}
	usr, err := db.CreateUser(nu)
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword("Ph0n3-Kiw1!"))
	assert.True(t, usr.IsActive)

	tests := []struct {
		name    string
		nu      account.NewUser
		wantErr error
	}{
		{name: "username taken", nu: account.NewUser{Username: "admin", Email: "other@kiam.test", Password: "x"}, wantErr: account.ErrUsernameExists},
		{name: "email taken", nu: account.NewUser{Username: "other", Email: "admin@kiam.test", Password: "x"}, wantErr: account.ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.CreateUser(tt.nu)
			assert.Equal(t, tt.wantErr, err)
		})
	}

	found, err := db.GetUserByIdentifier("admin@kiam.test")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, found.ID)

	upd, err := db.UpdateUser(usr.ID, account.UpdateUser{Prenom: "Awa", Password: "N3w-Pa55word"})
	require.NoError(t, err)
	assert.Equal(t, "Awa", upd.Prenom)
	assert.Equal(t, "admin", upd.Username)
	assert.NoError(t, upd.CheckPassword("N3w-Pa55word"))

	upd, err = db.SetUserStatus(usr.ID, false)
	require.NoError(t, err)
	assert.False(t, upd.IsActive)

	require.NoError(t, db.DeleteUser(usr.ID))
	assert.Equal(t, account.ErrNotFound, db.DeleteUser(usr.ID))
}

func TestFeedbacks(t *testing.T) {
	db := newDB()
	f := db.CreateFeedback(feedback.NewFeedback{Organisation: 4, ContenuKiam: 5, Formations: 4, Dortoirs: 3, Nourriture: 2, NoteGlobale: 15})
	assert.Equal(t, 1, db.ListFeedbacks(1, 10).Total)
	require.NoError(t, db.DeleteFeedback(f.ID))
	assert.Equal(t, feedback.ErrNotFound, db.DeleteFeedback(f.ID))
}
