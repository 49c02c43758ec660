package artifact

import (
	"fmt"
	"strconv"
	"time"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/grading"
	"github.com/trezcool/kiam/core/seminarist"
)

const defaultFont = "Helvetica"

func colorPtr(c Color) *Color { return &c }

func text(x, y, w float64, content string, size float64, style, align string, color Color) Text {
	return Text{Rect: Rect{X: x, Y: y, W: w}, Content: content, Font: defaultFont, Size: size, Style: style, Align: align, Color: color}
}

func seminarTitle() string {
	return fmt.Sprintf("%s %d", core.Conf.SeminarName, core.Conf.SeminarYear)
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', 2, 64)
}

// rankLabel is the french ordinal: 1er, 2e, ...
func rankLabel(rank int) string {
	if rank <= 0 {
		return "-"
	}
	if rank == 1 {
		return "1er"
	}
	return strconv.Itoa(rank) + "e"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Badge has a recto (identity, photo, QR of the matricule) and a verso (practical information).
func Badge(p seminarist.Participant) Document {
	w, h := BadgeSize.W, BadgeSize.H

	var recto Page
	recto.Add(
		Box{Rect: Rect{X: 1, Y: 1, W: w - 2, H: h - 2}, Rounded: true, Radius: 3, Border: colorPtr(Primary), LineWidth: 0.6},
		Box{Rect: Rect{X: 1, Y: 1, W: w - 2, H: 12}, Fill: colorPtr(Primary)},
		text(2, 3, w-4, seminarTitle(), 8, StyleBold, AlignCenter, White),
		Image{Rect: Rect{X: (w - 22) / 2, Y: 15, W: 22, H: 26}, Path: p.PhotoURL},
		text(2, 43, w-4, p.Prenom, 9, StyleBold, AlignCenter, Black),
		text(2, 48, w-4, p.Nom, 9, StyleBold, AlignCenter, Black),
		text(2, 54, w-4, p.Matricule, 7, StyleRegular, AlignCenter, Gray),
		QR{Rect: Rect{X: 3, Y: 61, W: 20, H: 20}, Payload: p.Matricule},
		text(25, 64, w-27, "Dortoir : "+orDash(p.Dortoir), 7, StyleRegular, AlignLeft, Black),
		text(25, 70, w-27, "Niveau : "+orDash(p.Niveau), 7, StyleRegular, AlignLeft, Black),
	)

	var verso Page
	verso.Add(
		Box{Rect: Rect{X: 1, Y: 1, W: w - 2, H: h - 2}, Rounded: true, Radius: 3, Border: colorPtr(Primary), LineWidth: 0.6},
		Watermark{Rect: Rect{X: 10, Y: 70}, Content: core.Conf.SeminarName, Size: 14, Angle: 60, Alpha: 0.12, Color: Primary},
		text(3, 5, w-6, "En cas d'urgence", 8, StyleBold, AlignCenter, Primary),
		text(3, 12, w-6, "Contact parent : "+p.ContactParent, 7, StyleRegular, AlignLeft, Black),
		text(3, 18, w-6, "Allergie : "+orDash(p.Allergie), 7, StyleRegular, AlignLeft, Black),
		text(3, 24, w-6, "Antécédents : "+orDash(p.AntecedentMedical), 7, StyleRegular, AlignLeft, Black),
		text(3, 60, w-6, "Ce badge doit être porté pendant toute la durée du séminaire.", 6, StyleItalic, AlignCenter, Gray),
		text(3, 76, w-6, seminarTitle(), 6, StyleRegular, AlignCenter, Gray),
	)

	return Document{
		Title: "Badge " + p.FullName(),
		Kind:  KindBadge,
		Size:  BadgeSize,
		Pages: []Page{recto, verso},
	}
}

func header(page *Page, size Size, title string) {
	page.Add(
		Box{Rect: Rect{X: 0, Y: 0, W: size.W, H: 28}, Fill: colorPtr(Primary)},
		text(15, 8, size.W-30, seminarTitle(), 16, StyleBold, AlignCenter, White),
		text(15, 18, size.W-30, title, 11, StyleRegular, AlignCenter, White),
	)
}

// field draws label and value on one line at y.
func field(page *Page, x, y, w float64, label, value string) {
	page.Add(
		text(x, y, 55, label, 10, StyleBold, AlignLeft, Gray),
		text(x+55, y, w-55, orDash(value), 10, StyleRegular, AlignLeft, Black),
	)
}

// BulletinSheet lists the notes of b with the average, the rank and the mention.
func BulletinSheet(b grading.Bulletin, notes []grading.Note) Document {
	if notes == nil {
		notes = b.Notes
	}
	size := A4
	var page Page
	header(&page, size, "Bulletin de notes")
	page.Add(Watermark{Rect: Rect{X: 40, Y: 230}, Content: core.Conf.SeminarName, Size: 48, Angle: 45, Alpha: 0.08, Color: Primary})

	field(&page, 20, 40, 170, "Séminariste", b.FullName())
	field(&page, 20, 47, 170, "Matricule", b.Matricule)
	field(&page, 20, 54, 170, "Niveau", b.Niveau)

	// notes table
	const (
		tableX   = 20.0
		tableW   = 170.0
		rowH     = 8.0
		colNote  = 60.0
		colObs   = 85.0
		tableTop = 68.0
	)
	page.Add(
		Box{Rect: Rect{X: tableX, Y: tableTop, W: tableW, H: rowH}, Fill: colorPtr(LightGray), Border: colorPtr(Gray), LineWidth: 0.2},
		text(tableX+2, tableTop+2, colNote-4, "Évaluation", 10, StyleBold, AlignLeft, Black),
		text(tableX+colNote, tableTop+2, colObs-colNote, "Note / 20", 10, StyleBold, AlignCenter, Black),
		text(tableX+colObs+2, tableTop+2, tableW-colObs-4, "Observation", 10, StyleBold, AlignLeft, Black),
	)
	y := tableTop + rowH
	for _, n := range notes {
		page.Add(
			Box{Rect: Rect{X: tableX, Y: y, W: tableW, H: rowH}, Border: colorPtr(Gray), LineWidth: 0.2},
			text(tableX+2, y+2, colNote-4, grading.LibelleLabel(n.Libelle), 10, StyleRegular, AlignLeft, Black),
			text(tableX+colNote, y+2, colObs-colNote, formatScore(n.Note), 10, StyleRegular, AlignCenter, Black),
			text(tableX+colObs+2, y+2, tableW-colObs-4, n.Observation, 9, StyleItalic, AlignLeft, Gray),
		)
		y += rowH
	}

	y += 10
	page.Add(Box{Rect: Rect{X: tableX, Y: y, W: tableW, H: 26}, Rounded: true, Radius: 2, Border: colorPtr(Primary), LineWidth: 0.4})
	field(&page, tableX+5, y+4, tableW-10, "Moyenne générale", formatScore(b.MoyenneGenerale)+" / 20")
	field(&page, tableX+5, y+11, tableW-10, "Rang", rankLabel(b.Rang))
	field(&page, tableX+5, y+18, tableW-10, "Mention", b.Mention())

	page.Add(text(110, 265, 80, "La direction scientifique", 10, StyleItalic, AlignCenter, Gray))

	return Document{
		Title: "Bulletin " + b.FullName(),
		Kind:  KindBulletin,
		Size:  size,
		Pages: []Page{page},
	}
}

// Certificate attests the participation of p, with the mention of their bulletin.
func Certificate(p seminarist.Participant, b grading.Bulletin) Document {
	size := A4Landscape
	var page Page
	page.Add(
		Box{Rect: Rect{X: 8, Y: 8, W: size.W - 16, H: size.H - 16}, Border: colorPtr(Primary), LineWidth: 1.5},
		Box{Rect: Rect{X: 12, Y: 12, W: size.W - 24, H: size.H - 24}, Rounded: true, Radius: 4, Border: colorPtr(Accent), LineWidth: 0.5},
		Watermark{Rect: Rect{X: 70, Y: 170}, Content: core.Conf.SeminarName, Size: 60, Angle: 20, Alpha: 0.06, Color: Primary},
		text(20, 30, size.W-40, "CERTIFICAT DE PARTICIPATION", 28, StyleBold, AlignCenter, Primary),
		text(20, 50, size.W-40, seminarTitle(), 14, StyleRegular, AlignCenter, Gray),
		text(20, 72, size.W-40, "Nous certifions que", 13, StyleItalic, AlignCenter, Black),
		text(20, 85, size.W-40, p.FullName(), 24, StyleBold, AlignCenter, Black),
		text(20, 102, size.W-40, "matricule "+p.Matricule, 11, StyleRegular, AlignCenter, Gray),
		text(40, 115, size.W-80, "a pris part avec assiduité à l'ensemble des activités du séminaire.", 13, StyleRegular, AlignCenter, Black),
		text(20, 135, size.W-40, fmt.Sprintf("Moyenne générale : %s / 20, mention %s", formatScore(b.MoyenneGenerale), b.Mention()), 13, StyleBold, AlignCenter, Black),
		text(30, 170, 90, "Fait le "+time.Now().Format("02/01/2006"), 11, StyleRegular, AlignLeft, Black),
		text(size.W-120, 170, 90, "La direction", 11, StyleItalic, AlignRight, Black),
	)
	return Document{
		Title: "Certificat " + p.FullName(),
		Kind:  KindCertificate,
		Size:  size,
		Pages: []Page{page},
	}
}

// RegistrationForm is the confirmation given at registration.
func RegistrationForm(p seminarist.Participant) Document {
	size := A4
	var page Page
	header(&page, size, "Fiche d'inscription")
	page.Add(
		Image{Rect: Rect{X: 155, Y: 36, W: 35, H: 42}, Path: p.PhotoURL},
		QR{Rect: Rect{X: 160, Y: 245, W: 30, H: 30}, Payload: p.Matricule},
	)

	rows := []struct{ label, value string }{
		{"Matricule", p.Matricule},
		{"Nom", p.Nom},
		{"Prénom", p.Prenom},
		{"Sexe", p.Sexe},
		{"Âge", strconv.Itoa(p.Age) + " ans"},
		{"Niveau académique", p.NiveauAcademique},
		{"Niveau", p.Niveau},
		{"Dortoir", p.Dortoir},
		{"Contact parent", p.ContactParent},
		{"Contact séminariste", p.ContactSeminariste},
		{"Allergie", p.Allergie},
		{"Antécédents médicaux", p.AntecedentMedical},
	}
	if p.NoteEntree != nil {
		rows = append(rows, struct{ label, value string }{"Test d'entrée", formatScore(*p.NoteEntree) + " / 20"})
	}
	y := 40.0
	for _, r := range rows {
		field(&page, 20, y, 130, r.label, r.value)
		y += 9
	}

	page.Add(
		text(20, 250, 120, "Signature du parent", 10, StyleItalic, AlignLeft, Gray),
		Box{Rect: Rect{X: 20, Y: 256, W: 70, H: 20}, Border: colorPtr(Gray), LineWidth: 0.2},
		text(20, 282, 170, "Inscrit le "+p.CreatedAt.Local().Format("02/01/2006"), 9, StyleRegular, AlignLeft, Gray),
	)
	return Document{
		Title: "Fiche d'inscription " + p.FullName(),
		Kind:  KindRegistration,
		Size:  size,
		Pages: []Page{page},
	}
}
