package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/mymmrac/telego"
)

// MaxDownloadSize is the largest file the Bot API lets bots download.
const MaxDownloadSize = 20 << 20

var ErrFileTooLarge = errors.New("file exceeds telegram download limit")

// DownloadFile fetches the content of a Telegram file by its ID. The whole
// exchange is bounded by the configured download timeout.
func (c *Connector) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	if c.bot == nil {
		return nil, ErrNotStarted
	}

	timeout := c.cfg.DownloadTimeout()
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	file, err := c.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", fileID, err)
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("get file %s: empty file path", fileID)
	}
	if file.FileSize > MaxDownloadSize {
		return nil, ErrFileTooLarge
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bot.FileDownloadURL(file.FilePath), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file %s: unexpected status %d", fileID, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", fileID, err)
	}
	if len(data) > MaxDownloadSize {
		return nil, ErrFileTooLarge
	}

	c.logger.DebugCtx(ctx, "file downloaded",
		logger.Field{Key: "file_id", Value: fileID},
		logger.Field{Key: "bytes", Value: len(data)})

	return data, nil
}
