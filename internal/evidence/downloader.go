package evidence

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type Downloader interface {
	DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// fileGetter is the part of *bot.Bot the downloader needs.
type fileGetter interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

type TelegramDownloader struct {
	api    fileGetter
	client *http.Client
}

func NewTelegramDownloader(api fileGetter, client *http.Client) Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &TelegramDownloader{api: api, client: client}
}

func (d *TelegramDownloader) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	file, err := d.api.GetFile(ctx, &bot.GetFileParams{
		FileID: fileID,
	})
	if err != nil {
		return nil, &ErrDownloadFailed{Err: err}
	}

	link := d.api.FileDownloadLink(file)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, &ErrDownloadFailed{Err: err}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &ErrDownloadFailed{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &ErrDownloadFailed{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	return resp.Body, nil
}
