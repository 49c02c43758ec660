package main

import (
	"context"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core/artifact"
	"github.com/trezcool/kiam/core/grading"
	emailsvc "github.com/trezcool/kiam/services/email"
)

type docKind int

const (
	docBadge docKind = iota
	docBulletin
	docCertificate
	docRegistration
)

// document builds the artifact of kind for the participant with matricule.
func (cli *commandLine) document(ctx context.Context, kind docKind, matricule string) (artifact.Document, error) {
	switch kind {
	case docBulletin:
		b, err := cli.bulletinWithNotes(ctx, matricule)
		if err != nil {
			return artifact.Document{}, err
		}
		return artifact.BulletinSheet(b, nil), nil
	case docCertificate:
		p, err := cli.participants.GetByMatricule(ctx, matricule)
		if err != nil {
			return artifact.Document{}, err
		}
		b, err := cli.grading.Bulletin(ctx, p.Matricule)
		if err != nil {
			return artifact.Document{}, err
		}
		return artifact.Certificate(p, b), nil
	}

	p, err := cli.participants.GetByMatricule(ctx, matricule)
	if err != nil {
		return artifact.Document{}, err
	}
	if kind == docBadge {
		return artifact.Badge(p), nil
	}
	return artifact.RegistrationForm(p), nil
}

func (cli *commandLine) bulletinWithNotes(ctx context.Context, matricule string) (grading.Bulletin, error) {
	b, err := cli.grading.Bulletin(ctx, matricule)
	if err != nil {
		return grading.Bulletin{}, err
	}
	if len(b.Notes) == 0 {
		if b.Notes, err = cli.grading.NotesFor(ctx, b.Matricule); err != nil {
			return grading.Bulletin{}, err
		}
	}
	return b, nil
}

func (cli *commandLine) documentCmd(kind docKind) func(ctx context.Context, args []string) error {
	names := map[docKind]string{
		docBadge:        "pdf badge",
		docBulletin:     "pdf bulletin",
		docCertificate:  "pdf certificate",
		docRegistration: "pdf registration",
	}
	return func(ctx context.Context, args []string) error {
		fs := cli.newFlagSet(names[kind])
		matricule := fs.String("matricule", "", "Participant matricule.")
		out := fs.String("out", cli.outputDir, "Output directory.")
		if err := parse(fs, args); err != nil {
			return err
		}
		if *matricule == "" {
			fs.Usage()
			return errHelp
		}

		doc, err := cli.document(ctx, kind, *matricule)
		if err != nil {
			return err
		}
		data, err := cli.renderer.RenderBytes(ctx, doc)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(*out, 0o755); err != nil {
			return errors.Wrap(err, "creating output directory")
		}
		path := filepath.Join(*out, artifact.Filename(doc.Kind, *matricule, cli.now()))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errors.Wrap(err, "writing document")
		}
		cli.printf("Fichier écrit : %s (%s)\n", path, humanize.Bytes(uint64(len(data))))
		return nil
	}
}

func (cli *commandLine) mailBulletin(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("mail bulletin")
	matricule := fs.String("matricule", "", "Participant matricule.")
	to := fs.String("to", "", "Recipient, e.g. \"Parent Koné <parent@example.com>\".")
	attach := fs.String("attach", "", "Comma-separated files to attach as well, e.g. the certificate.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *matricule == "" || *to == "" {
		fs.Usage()
		return errHelp
	}
	addr, err := mail.ParseAddress(*to)
	if err != nil {
		return errors.Wrapf(err, "parsing recipient %q", *to)
	}

	b, err := cli.bulletinWithNotes(ctx, *matricule)
	if err != nil {
		return err
	}
	doc := artifact.BulletinSheet(b, nil)
	data, err := cli.renderer.RenderBytes(ctx, doc)
	if err != nil {
		return err
	}
	msg, err := emailsvc.NewBulletinMessage(b, data, artifact.Filename(doc.Kind, b.Matricule, cli.now()), *addr)
	if err != nil {
		return err
	}
	for _, path := range strings.Split(*attach, ",") {
		if path = strings.TrimSpace(path); path == "" {
			continue
		}
		if err := msg.AttachFile(path); err != nil {
			return errors.Wrapf(err, "attaching %s", path)
		}
	}
	if err := cli.mailer.SendMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "sending bulletin")
	}
	cli.printf("Bulletin de %s envoyé à %s (%s joint).\n", b.FullName(), addr.Address, humanize.Bytes(uint64(len(data))))
	return nil
}
