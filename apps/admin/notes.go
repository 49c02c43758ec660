package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/trezcool/kiam/core/grading"
)

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', 2, 64)
}

func (cli *commandLine) listNotes(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("notes list")
	page := fs.Int("page", 1, "Page number.")
	var qf grading.QueryFilter
	fs.StringVar(&qf.Matricule, "matricule", "", "Participant matricule.")
	fs.StringVar(&qf.Libelle, "libelle", "", "Slot, e.g. conduite or evaluation_2.")
	lo := fs.Float64("min", 0, "Lowest score.")
	hi := fs.Float64("max", 20, "Highest score.")
	if err := parse(fs, args); err != nil {
		return err
	}
	qf.Matricule = strings.ToUpper(strings.TrimSpace(qf.Matricule))
	set := visited(fs)
	if set["min"] {
		qf.MinNote = lo
	}
	if set["max"] {
		qf.MaxNote = hi
	}

	filtered := qf.Matricule != "" || qf.Libelle != "" || qf.MinNote != nil || qf.MaxNote != nil
	res, err := pageOf(ctx, *page, cli.pageSize, filtered,
		cli.grading.ListNotes,
		func(ctx context.Context) ([]grading.Note, error) { return cli.grading.Search(ctx, qf) },
	)
	if err != nil {
		return err
	}

	tw := cli.table()
	row(tw, "ID", "MATRICULE", "LIBELLÉ", "NOTE", "OBSERVATION")
	for _, n := range res.Data {
		row(tw, strconv.Itoa(n.ID), n.Matricule, grading.LibelleLabel(n.Libelle), formatScore(n.Note), orDash(n.Observation))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	cli.printPage(res.Paginator())
	return nil
}

func (cli *commandLine) addNote(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("notes add")
	var nn grading.NewNote
	fs.StringVar(&nn.Matricule, "matricule", "", "Participant matricule.")
	fs.StringVar(&nn.Libelle, "libelle", "", "Slot: test_entree, conduite or evaluation_N.")
	fs.Float64Var(&nn.Note, "note", 0, "Score, out of 20.")
	fs.StringVar(&nn.Observation, "observation", "", "Instructor's remark.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if nn.Matricule == "" || nn.Libelle == "" || !visited(fs)["note"] {
		fs.Usage()
		return errHelp
	}

	n, err := cli.grading.CreateNote(ctx, nn)
	if err != nil {
		return err
	}
	cli.printf("Note %s enregistrée pour %s : %s / 20.\n", grading.LibelleLabel(n.Libelle), n.Matricule, formatScore(n.Note))
	return nil
}

func (cli *commandLine) editNote(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("notes edit")
	id := fs.Int("id", 0, "Note ID.")
	var un grading.UpdateNote
	fs.Float64Var(&un.Note, "note", 0, "Score, out of 20.")
	fs.StringVar(&un.Observation, "observation", "", "Instructor's remark.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 || !visited(fs)["note"] {
		fs.Usage()
		return errHelp
	}

	n, err := cli.grading.UpdateNote(ctx, *id, un)
	if err != nil {
		return err
	}
	cli.printf("Note %d modifiée : %s / 20.\n", n.ID, formatScore(n.Note))
	return nil
}

func (cli *commandLine) deleteNote(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("notes delete")
	id := fs.Int("id", 0, "Note ID.")
	yes := fs.Bool("yes", false, "Do not ask for confirmation.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		fs.Usage()
		return errHelp
	}

	err := cli.grading.DeleteNote(ctx, *id, cli.confirm("Supprimer la note "+strconv.Itoa(*id)+" ?", *yes))
	return cli.deleted(err, "Note "+strconv.Itoa(*id))
}

// entranceNote scores the entrance test and places the participant in a group.
func (cli *commandLine) entranceNote(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("notes entree")
	id := fs.Int("id", 0, "Participant ID.")
	note := fs.Float64("note", 0, "Entrance test score, out of 20.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 || !visited(fs)["note"] {
		fs.Usage()
		return errHelp
	}

	p, err := cli.participants.SetEntranceNote(ctx, *id, *note)
	if err != nil {
		return err
	}
	cli.printf("%s : %s / 20, niveau %s.\n", p.FullName(), formatNote(p.NoteEntree), p.Niveau)
	return nil
}

func (cli *commandLine) listBulletins(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("bulletins list")
	page := fs.Int("page", 1, "Page number.")
	var bf grading.BulletinFilter
	fs.StringVar(&bf.Search, "search", "", "Search the name and the matricule.")
	fs.StringVar(&bf.Niveau, "niveau", "", "Group, e.g. SecondaireA.")
	fs.StringVar(&bf.Mention, "mention", "", "Mention, e.g. \"Très bien\".")
	if err := parse(fs, args); err != nil {
		return err
	}

	res, err := pageOf(ctx, *page, cli.pageSize, bf.Search != "" || bf.Niveau != "" || bf.Mention != "",
		cli.grading.ListBulletins,
		func(ctx context.Context) ([]grading.Bulletin, error) { return cli.grading.SearchBulletins(ctx, bf) },
	)
	if err != nil {
		return err
	}

	tw := cli.table()
	row(tw, "RANG", "MATRICULE", "NOM", "NIVEAU", "MOYENNE", "MENTION")
	for _, b := range res.Data {
		row(tw, strconv.Itoa(b.Rang), b.Matricule, b.FullName(), orDash(b.Niveau), formatScore(b.MoyenneGenerale), b.Mention())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	cli.printPage(res.Paginator())
	return nil
}

func (cli *commandLine) showBulletin(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("bulletins show")
	matricule := fs.String("matricule", "", "Participant matricule.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *matricule == "" {
		fs.Usage()
		return errHelp
	}

	b, err := cli.grading.Bulletin(ctx, *matricule)
	if err != nil {
		return err
	}
	notes := b.Notes
	if len(notes) == 0 {
		if notes, err = cli.grading.NotesFor(ctx, b.Matricule); err != nil {
			return err
		}
	}

	cli.printf("Bulletin de %s (%s), niveau %s\n\n", b.FullName(), b.Matricule, orDash(b.Niveau))
	tw := cli.table()
	row(tw, "LIBELLÉ", "NOTE", "OBSERVATION")
	for _, n := range notes {
		row(tw, grading.LibelleLabel(n.Libelle), formatScore(n.Note), orDash(n.Observation))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	cli.printf("\nMoyenne générale : %s / 20, rang %d, mention %s\n", formatScore(b.MoyenneGenerale), b.Rang, b.Mention())
	return nil
}
