package artifact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kiam/core/grading"
	"github.com/trezcool/kiam/core/seminarist"
)

func participant() seminarist.Participant {
	note := 13.5
	return seminarist.Participant{
		ID: 1, Matricule: "KIAM-2026-0001", Nom: "Koné", Prenom: "Awa", Sexe: "F", Age: 14,
		NiveauAcademique: "3e", Niveau: grading.GroupSecondaireA, Dortoir: "D1",
		ContactParent: "+225 0102030405", Allergie: seminarist.DefaultMedical, AntecedentMedical: seminarist.DefaultMedical,
		NoteEntree: &note,
	}
}

func bulletin() grading.Bulletin {
	return grading.Bulletin{
		Matricule: "KIAM-2026-0001", Nom: "Koné", Prenom: "Awa", Niveau: grading.GroupSecondaireA,
		MoyenneGenerale: 14.25, Rang: 2,
		Notes: []grading.Note{
			{ID: 1, Matricule: "KIAM-2026-0001", Libelle: grading.LibelleEntree, Note: 13.5},
			{ID: 2, Matricule: "KIAM-2026-0001", Libelle: grading.LibelleConduite, Note: 15, Observation: "très bien"},
		},
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 10, 14, 17, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		kind    string
		subject string
		want    string
	}{
		{name: "matricule", kind: KindBadge, subject: "KIAM-2026-0001", want: "badge_KIAM-2026-0001_2026-10-14.pdf"},
		{name: "spaces and slashes", kind: KindCertificate, subject: " Awa Koné / 3e ", want: "certificat_Awa_Koné_3e_2026-10-14.pdf"},
		{name: "no subject", kind: KindBulletin, subject: "  ", want: "bulletin_2026-10-14.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.kind, tt.subject, now))
		})
	}
}

func TestBadge(t *testing.T) {
	doc := Badge(participant())
	assert.Equal(t, KindBadge, doc.Kind)
	assert.Equal(t, BadgeSize, doc.Size)
	require.Len(t, doc.Pages, 2, "recto and verso")

	var qr *QR
	for _, r := range doc.Pages[0].Regions {
		if v, ok := r.(QR); ok {
			qr = &v
		}
	}
	require.NotNil(t, qr)
	assert.Equal(t, "KIAM-2026-0001", qr.Payload)
	assert.Contains(t, doc.Texts(), "Contact parent : +225 0102030405")
}

func TestBulletinSheet(t *testing.T) {
	b := bulletin()
	texts := BulletinSheet(b, nil).Texts()
	for _, want := range []string{"Test d'entrée", "Conduite", "15.00", "très bien", "14.25 / 20", "2e", "Bien"} {
		assert.Contains(t, texts, want)
	}

	texts = BulletinSheet(b, b.Notes[:1]).Texts()
	assert.NotContains(t, texts, "Conduite", "explicit notes win over the bulletin's")
}

func TestCertificateAndRegistration(t *testing.T) {
	p := participant()
	cert := Certificate(p, bulletin())
	assert.Equal(t, A4Landscape, cert.Size)
	assert.Contains(t, cert.Texts(), "Awa Koné")
	assert.Contains(t, cert.Texts(), "Moyenne générale : 14.25 / 20, mention Bien")

	form := RegistrationForm(p)
	require.Len(t, form.Pages, 1)
	assert.Contains(t, form.Texts(), "14 ans")
	assert.Contains(t, form.Texts(), "13.50 / 20")
	assert.Contains(t, form.Texts(), "-", "empty values are dashed")
}

func TestRankLabel(t *testing.T) {
	assert.Equal(t, "1er", rankLabel(1))
	assert.Equal(t, "3e", rankLabel(3))
	assert.Equal(t, "-", rankLabel(0))
}
