package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

// Kind classifies an incoming attachment. Video, audio and documents are
// size-capped; photos and voice notes are small by construction and are
// relayed regardless of their reported size.
type Kind string

const (
	KindPhoto    Kind = "photo"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindVoice    Kind = "voice"
	KindDocument Kind = "document"
)

// MaxFileSize caps relayed videos, audio and documents at 200 MB.
const MaxFileSize = 200 << 20

// ErrTooLarge marks attachments rejected by the size cap. The check runs
// on the size Telegram reports, before any bytes move.
var ErrTooLarge = errors.New("file exceeds the relay size limit")

// Attachment describes a file the bot was asked to mirror.
type Attachment struct {
	Kind     Kind
	FileID   string
	FileName string
	Size     int64
}

// FileResolver turns a Telegram file id into a downloadable URL.
type FileResolver interface {
	FileURL(ctx context.Context, fileID string) (string, error)
}

// Uploader pushes bytes to the hosting service and returns a public link.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// Service mirrors chat attachments to the file host: resolve the
// download URL, fetch the bytes, upload them, hand back the link.
type Service struct {
	resolver FileResolver
	uploader Uploader
	http     *http.Client
}

func NewService(resolver FileResolver, uploader Uploader) *Service {
	return &Service{
		resolver: resolver,
		uploader: uploader,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Relay mirrors one attachment and returns its public link.
func (s *Service) Relay(ctx context.Context, att Attachment) (string, error) {
	if sizeCapped(att.Kind) && att.Size > MaxFileSize {
		return "", fmt.Errorf("%w: %s is %s, the limit is %s",
			ErrTooLarge, att.Kind, formatSize(att.Size), formatSize(MaxFileSize))
	}

	fileURL, err := s.resolver.FileURL(ctx, att.FileID)
	if err != nil {
		return "", fmt.Errorf("resolve %s %s: %w", att.Kind, att.FileID, err)
	}

	data, err := s.download(ctx, fileURL)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", att.Kind, err)
	}

	link, err := s.uploader.Upload(ctx, uploadName(att, fileURL), data)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", att.Kind, err)
	}
	return link, nil
}

func (s *Service) download(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func(b io.ReadCloser) {
		err := b.Close()
		if err != nil {
		}
	}(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func sizeCapped(k Kind) bool {
	switch k {
	case KindVideo, KindAudio, KindDocument:
		return true
	}
	return false
}

// uploadName prefers the original filename and falls back to the last
// path segment of the download URL.
func uploadName(att Attachment, fileURL string) string {
	if att.FileName != "" {
		return att.FileName
	}
	if u, err := url.Parse(fileURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			return base
		}
	}
	return string(att.Kind) + ".bin"
}

func formatSize(n int64) string {
	const mb = 1 << 20
	if n < mb {
		return fmt.Sprintf("%d KB", n/(1<<10))
	}
	return fmt.Sprintf("%.1f MB", float64(n)/mb)
}
