package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/healthkey/internal/client/models"
	"github.com/dmitrijs2005/healthkey/internal/client/services"
	"github.com/dmitrijs2005/healthkey/internal/common"
	"github.com/dmitrijs2005/healthkey/internal/mimex"
)

var errUsage = fmt.Errorf("%w: wrong arguments", common.ErrorValidation)

// Upload encrypts and stores the file at args[0].
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w, usage: upload <path>", errUsage)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	res, err := a.pipeline.Upload(ctx, services.UploadRequest{Name: filepath.Base(args[0]), Data: data})
	if err != nil {
		return err
	}
	a.printUpload(res)
	return nil
}

// Note stores a typed multi-line text as text/plain.
func (a *App) Note(ctx context.Context) error {
	text, err := GetMultiline(a.reader, "Enter note text", a.out)
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("%w: empty note", common.ErrorValidation)
	}

	res, err := a.pipeline.Upload(ctx, services.UploadRequest{Name: "note.txt", ContentType: "text/plain", Data: []byte(text)})
	if err != nil {
		return err
	}
	a.printUpload(res)
	return nil
}

// Submit stores a health form. Fields come from args[1:] or, when absent,
// are read interactively.
func (a *App) Submit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w, usage: submit <form> [name=value ...]", errUsage)
	}

	raw := args[1:]
	if len(raw) == 0 {
		var err error
		if raw, err = GetFields(a.reader, a.out); err != nil {
			return err
		}
	}
	fields, err := models.FieldsFromStrings(raw)
	if err != nil {
		return err
	}

	form := models.Form{Name: args[0], Fields: fields, SubmittedAt: time.Now().UTC()}
	res, err := a.pipeline.SubmitForm(ctx, args[0], form)
	if err != nil {
		return err
	}
	a.printUpload(res)
	return nil
}

func (a *App) printUpload(res *services.UploadResult) {
	fmt.Fprintf(a.out, "Stored %s (%s, %d bytes, price %d, funded %d)\n",
		res.StorageID, res.ContentType, res.Size, res.Price, res.Funded)
	switch {
	case res.Anchor != nil:
		fmt.Fprintf(a.out, "Anchored in %s\n", res.Anchor.Signature)
	case res.AnchorErr != nil:
		fmt.Fprintf(a.out, "Anchor failed, the upload is kept: %v\n", res.AnchorErr)
	}
}

// List prints the connected wallet's uploads.
func (a *App) List(ctx context.Context) error {
	recs, err := a.pipeline.History(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No uploads")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", r.StorageID, r.ContentType, r.Size, r.OriginalName, r.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

// Get retrieves, decrypts and shows the object args[0].
func (a *App) Get(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w, usage: get <id>", errUsage)
	}
	r, err := a.pipeline.RetrieveByID(ctx, args[0])
	if err != nil {
		return err
	}
	return a.present(r.Presentation)
}

func (a *App) present(p mimex.Presentation) error {
	switch p.Kind {
	case mimex.KindJSON:
		b, err := json.MarshalIndent(p.JSON, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, string(b))
	case mimex.KindText:
		fmt.Fprintln(a.out, p.Text)
	default:
		path, err := a.blobs.Replace(p.Data, mimex.Extension(p.ContentType))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s, %d bytes: %s\n", p.ContentType, len(p.Data), path)
	}
	return nil
}

// Profile handles "profile init <id> <goal...>" and "profile show".
func (a *App) Profile(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w, usage: profile init <id> <goal> | profile show", errUsage)
	}

	switch args[0] {
	case "init":
		if len(args) < 3 {
			return fmt.Errorf("%w, usage: profile init <id> <goal>", errUsage)
		}
		r, err := a.profiles.Init(ctx, args[1], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Profile created in %s\n", r.Signature)
	case "show":
		p, err := a.profiles.Show(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Authority: %s\nRecord: %s\nGoal: %s\nCreated: %s\n",
			p.Authority, p.StoragePointer, p.Goal, p.CreatedAt.Format(time.RFC3339))
	default:
		return fmt.Errorf("%w: unknown profile command %q", common.ErrorValidation, args[0])
	}
	return nil
}

// History prints recent pipeline events.
func (a *App) History(ctx context.Context) error {
	evs, err := a.eventsRepo.Recent(ctx, 20)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, e := range evs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.At.Local().Format(time.DateTime), e.Kind, e.StorageID, e.Detail)
	}
	return tw.Flush()
}
