package backend

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// UploadImage streame le fichier en multipart sans le garder en mémoire.
// Le retour attend la fin de l'écriture : body n'est plus lu une fois la fonction terminée.
func (c *Client) UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	var g errgroup.Group
	g.Go(func() error {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(filename)))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err == nil {
			_, err = io.Copy(part, body)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
		return err
	})

	var out urlDTO
	err := c.do(ctx, http.MethodPost, "/upload", pr, mw.FormDataContentType(), &out)
	// Débloque l'écriture si la requête a échoué avant d'avoir tout lu
	pr.CloseWithError(io.ErrClosedPipe)
	// Une erreur d'écriture remonte déjà par la requête (pipe fermé avec l'erreur)
	_ = g.Wait()
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) InitiatePayment(ctx context.Context, userID, plan string) (string, error) {
	var out urlDTO
	body := map[string]string{"userId": userID, "plan": plan}
	if err := c.doJSON(ctx, http.MethodPost, "/payment/init", body, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
