package emailsvc

import (
	"bytes"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/grading"
)

const bulletinTemplate = "bulletin"

// BulletinData is what the bulletin templates render.
type BulletinData struct {
	grading.Bulletin
	Mention string
}

// NewBulletinMessage addresses b to the recipients with its pdf attached.
func NewBulletinMessage(b grading.Bulletin, pdf []byte, filename string, to ...mail.Address) (*core.EmailMessage, error) {
	msg := &core.EmailMessage{
		To:           to,
		Subject:      "Bulletin de " + b.FullName(),
		TemplateName: bulletinTemplate,
		TemplateData: BulletinData{Bulletin: b, Mention: b.Mention()},
	}
	if err := msg.Attach(bytes.NewReader(pdf), filename, "application/pdf"); err != nil {
		return nil, errors.Wrap(err, "attaching bulletin")
	}
	return msg, nil
}
