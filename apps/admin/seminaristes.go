package main

import (
	"context"
	"flag"
	"strconv"

	"github.com/trezcool/kiam/core/paging"
	"github.com/trezcool/kiam/core/seminarist"
)

func formatNote(n *float64) string {
	if n == nil {
		return "-"
	}
	return strconv.FormatFloat(*n, 'f', -1, 64)
}

func (cli *commandLine) listParticipants(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("seminaristes list")
	page := fs.Int("page", 1, "Page number.")
	var qf seminarist.QueryFilter
	fs.StringVar(&qf.Search, "search", "", "Search the name and the matricule.")
	fs.StringVar(&qf.Sexe, "sexe", "", "M or F.")
	fs.StringVar(&qf.Niveau, "niveau", "", "Group, e.g. SecondaireA.")
	fs.StringVar(&qf.Dortoir, "dortoir", "", "Dormitory code.")
	fs.StringVar(&qf.Ordering, "ordering", "", "Sort field, prefixed with - for descending order (e.g. -note_entree).")
	if err := parse(fs, args); err != nil {
		return err
	}

	res, err := pageOf(ctx, *page, cli.pageSize, !qf.IsEmpty() || qf.Ordering != "",
		cli.participants.List,
		func(ctx context.Context) ([]seminarist.Participant, error) { return cli.participants.Search(ctx, qf) },
	)
	if err != nil {
		return err
	}
	return cli.printParticipants(res)
}

func (cli *commandLine) printParticipants(res paging.Page[seminarist.Participant]) error {
	tw := cli.table()
	row(tw, "ID", "MATRICULE", "NOM", "SEXE", "ÂGE", "NIVEAU", "DORTOIR", "NOTE ENTRÉE")
	for _, p := range res.Data {
		row(tw, strconv.Itoa(p.ID), p.Matricule, p.FullName(), p.Sexe, strconv.Itoa(p.Age), orDash(p.Niveau), p.Dortoir, formatNote(p.NoteEntree))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	cli.printPage(res.Paginator())
	return nil
}

// findParticipant looks a participant up by -id or -matricule.
func (cli *commandLine) findParticipant(ctx context.Context, fs *flag.FlagSet, id int, matricule string) (seminarist.Participant, error) {
	switch {
	case id > 0:
		return cli.participants.Get(ctx, id)
	case matricule != "":
		return cli.participants.GetByMatricule(ctx, matricule)
	}
	fs.Usage()
	return seminarist.Participant{}, errHelp
}

func (cli *commandLine) showParticipant(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("seminaristes show")
	id := fs.Int("id", 0, "Participant ID.")
	matricule := fs.String("matricule", "", "Participant matricule (used when -id is not given).")
	if err := parse(fs, args); err != nil {
		return err
	}
	p, err := cli.findParticipant(ctx, fs, *id, *matricule)
	if err != nil {
		return err
	}

	tw := cli.table()
	row(tw, "Matricule", p.Matricule)
	row(tw, "Nom", p.Nom)
	row(tw, "Prénom", p.Prenom)
	row(tw, "Sexe", p.Sexe)
	row(tw, "Âge", strconv.Itoa(p.Age))
	row(tw, "Niveau académique", p.NiveauAcademique)
	row(tw, "Niveau", orDash(p.Niveau))
	row(tw, "Dortoir", p.Dortoir)
	row(tw, "Contact parent", p.ContactParent)
	row(tw, "Contact séminariste", orDash(p.ContactSeminariste))
	row(tw, "Allergie", p.Allergie)
	row(tw, "Antécédent médical", p.AntecedentMedical)
	row(tw, "Note d'entrée", formatNote(p.NoteEntree))
	row(tw, "Photo", orDash(p.PhotoURL))
	return tw.Flush()
}

// participantFlags binds the registration fields to fs.
type participantFlags struct {
	nom, prenom, sexe, niveauAcademique, niveau, dortoir string
	contactParent, contact, allergie, antecedent, photo  string
	age                                                  int
	noteEntree                                           float64
}

func bindParticipantFlags(fs *flag.FlagSet) *participantFlags {
	pf := new(participantFlags)
	fs.StringVar(&pf.nom, "nom", "", "Last name.")
	fs.StringVar(&pf.prenom, "prenom", "", "First name.")
	fs.StringVar(&pf.sexe, "sexe", "", "M or F.")
	fs.IntVar(&pf.age, "age", 0, "Age.")
	fs.StringVar(&pf.niveauAcademique, "niveau-academique", "", "School level, e.g. 3e.")
	fs.StringVar(&pf.niveau, "niveau", "", "Group, e.g. SecondaireA.")
	fs.StringVar(&pf.dortoir, "dortoir", "", "Dormitory code.")
	fs.StringVar(&pf.contactParent, "contact-parent", "", "Parent's phone number.")
	fs.StringVar(&pf.contact, "contact", "", "Participant's phone number.")
	fs.StringVar(&pf.allergie, "allergie", "", "Allergies (RAS when empty).")
	fs.StringVar(&pf.antecedent, "antecedent", "", "Medical history (RAS when empty).")
	fs.StringVar(&pf.photo, "photo", "", "Photo URL.")
	fs.Float64Var(&pf.noteEntree, "note-entree", 0, "Entrance test score, out of 20.")
	return pf
}

func (pf *participantFlags) newParticipant(set map[string]bool) seminarist.NewParticipant {
	np := seminarist.NewParticipant{
		Nom:                pf.nom,
		Prenom:             pf.prenom,
		Sexe:               pf.sexe,
		Age:                pf.age,
		NiveauAcademique:   pf.niveauAcademique,
		Niveau:             pf.niveau,
		Dortoir:            pf.dortoir,
		ContactParent:      pf.contactParent,
		ContactSeminariste: pf.contact,
		Allergie:           pf.allergie,
		AntecedentMedical:  pf.antecedent,
		PhotoURL:           pf.photo,
	}
	if set["note-entree"] {
		note := pf.noteEntree
		np.NoteEntree = &note
	}
	return np
}

// update only carries the flags set on the command line.
func (pf *participantFlags) update(set map[string]bool) seminarist.UpdateParticipant {
	var up seminarist.UpdateParticipant
	str := func(name string, v string) *string {
		if !set[name] {
			return nil
		}
		return &v
	}
	up.Nom = str("nom", pf.nom)
	up.Prenom = str("prenom", pf.prenom)
	up.Sexe = str("sexe", pf.sexe)
	up.NiveauAcademique = str("niveau-academique", pf.niveauAcademique)
	up.Niveau = str("niveau", pf.niveau)
	up.Dortoir = str("dortoir", pf.dortoir)
	up.ContactParent = str("contact-parent", pf.contactParent)
	up.ContactSeminariste = str("contact", pf.contact)
	up.Allergie = str("allergie", pf.allergie)
	up.AntecedentMedical = str("antecedent", pf.antecedent)
	up.PhotoURL = str("photo", pf.photo)
	if set["age"] {
		age := pf.age
		up.Age = &age
	}
	if set["note-entree"] {
		note := pf.noteEntree
		up.NoteEntree = &note
	}
	return up
}

func (cli *commandLine) addParticipant(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("seminaristes add")
	pf := bindParticipantFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if pf.nom == "" || pf.prenom == "" {
		fs.Usage()
		return errHelp
	}

	p, err := cli.participants.Create(ctx, pf.newParticipant(visited(fs)))
	if err != nil {
		return err
	}
	cli.printf("Séminariste %s inscrit(e) : %s.\n", p.FullName(), p.Matricule)
	return nil
}

func (cli *commandLine) editParticipant(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("seminaristes edit")
	id := fs.Int("id", 0, "Participant ID.")
	pf := bindParticipantFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		fs.Usage()
		return errHelp
	}
	set := visited(fs)
	delete(set, "id")
	if len(set) == 0 {
		return seminarist.ErrNothingToEdit
	}

	p, err := cli.participants.Update(ctx, *id, pf.update(set))
	if err != nil {
		return err
	}
	cli.printf("Séminariste %s (%s) modifié(e).\n", p.FullName(), p.Matricule)
	return nil
}

func (cli *commandLine) deleteParticipant(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("seminaristes delete")
	id := fs.Int("id", 0, "Participant ID.")
	yes := fs.Bool("yes", false, "Do not ask for confirmation.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		fs.Usage()
		return errHelp
	}
	p, err := cli.participants.Get(ctx, *id)
	if err != nil {
		return err
	}

	err = cli.participants.Delete(ctx, p.ID, cli.confirm("Supprimer "+p.FullName()+" ("+p.Matricule+") et ses notes ?", *yes))
	return cli.deleted(err, "Séminariste "+p.Matricule)
}
