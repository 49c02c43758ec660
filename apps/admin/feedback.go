package main

import (
	"context"
	"strconv"

	"github.com/trezcool/kiam/core/feedback"
)

// parseFeedbackFilter parses the filter flags shared by list and summary.
func (cli *commandLine) parseFeedbackFilter(name string, args []string) (qf feedback.QueryFilter, page int, err error) {
	fs := cli.newFlagSet(name)
	fs.IntVar(&page, "page", 1, "Page number.")
	fs.StringVar(&qf.Search, "search", "", "Search the name and the answers.")
	fs.StringVar(&qf.Sexe, "sexe", "", "M or F.")
	recommande := fs.Bool("recommande", true, "Only feedback that recommends (true) or not (false) the seminar.")
	minNote := fs.Float64("min", 0, "Lowest overall score.")
	if err = parse(fs, args); err != nil {
		return qf, page, err
	}
	set := visited(fs)
	if set["recommande"] {
		qf.Recommande = recommande
	}
	if set["min"] {
		qf.MinNoteGlobale = minNote
	}
	return qf, page, nil
}

func isFiltered(qf feedback.QueryFilter) bool {
	return qf.Search != "" || qf.Sexe != "" || qf.Recommande != nil || qf.MinNoteGlobale != nil
}

func (cli *commandLine) listFeedbacks(ctx context.Context, args []string) error {
	qf, page, err := cli.parseFeedbackFilter("feedback list", args)
	if err != nil {
		return err
	}

	res, err := pageOf(ctx, page, cli.pageSize, isFiltered(qf),
		cli.feedbacks.List,
		func(ctx context.Context) ([]feedback.Feedback, error) { return cli.feedbacks.Search(ctx, qf) },
	)
	if err != nil {
		return err
	}

	tw := cli.table()
	row(tw, "ID", "AUTEUR", "ORGA.", "CONTENU", "FORMATIONS", "DORTOIRS", "NOURRITURE", "GLOBALE", "RECOMMANDE", "SUGGESTIONS")
	for _, f := range res.Data {
		row(tw, strconv.Itoa(f.ID), f.Author(),
			strconv.Itoa(f.Organisation), strconv.Itoa(f.ContenuKiam), strconv.Itoa(f.Formations),
			strconv.Itoa(f.Dortoirs), strconv.Itoa(f.Nourriture),
			formatScore(f.NoteGlobale), yesNo(f.Recommande), orDash(truncate(f.Suggestions, 40)),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	cli.printPage(res.Paginator())
	return nil
}

var criterionLabels = map[string]string{
	feedback.CritOrganisation: "Organisation",
	feedback.CritContenuKiam:  "Contenu",
	feedback.CritFormations:   "Formations",
	feedback.CritDortoirs:     "Dortoirs",
	feedback.CritNourriture:   "Nourriture",
}

func (cli *commandLine) feedbackSummary(ctx context.Context, args []string) error {
	qf, _, err := cli.parseFeedbackFilter("feedback summary", args)
	if err != nil {
		return err
	}

	s, err := cli.feedbacks.Summary(ctx, qf)
	if err != nil {
		return err
	}
	cli.printf("%d avis\n\n", s.Count)
	tw := cli.table()
	for _, crit := range feedback.ScoredCriteria {
		row(tw, criterionLabels[crit], strconv.FormatFloat(s.Averages[crit], 'f', 2, 64)+" / 5")
	}
	row(tw, "Note globale", formatScore(s.NoteGlobale)+" / 20")
	row(tw, "Recommandent", strconv.FormatFloat(s.RecommandeRate*100, 'f', 0, 64)+" %")
	return tw.Flush()
}

func (cli *commandLine) deleteFeedback(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("feedback delete")
	id := fs.Int("id", 0, "Feedback ID.")
	yes := fs.Bool("yes", false, "Do not ask for confirmation.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		fs.Usage()
		return errHelp
	}

	err := cli.feedbacks.Delete(ctx, *id, cli.confirm("Supprimer l'avis "+strconv.Itoa(*id)+" ?", *yes))
	return cli.deleted(err, "Avis "+strconv.Itoa(*id))
}
