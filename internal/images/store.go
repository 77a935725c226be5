// Package images is the image-storage collaborator: it accepts base64 encoded
// payloads, persists them under the media root and hands back the stable
// reference the rest of the system stores.
package images

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store writes decoded images below Root and addresses them below BaseURL.
type Store struct {
	Root    string
	BaseURL string
}

// NewStore builds a Store rooted at the given directory.
func NewStore(root, baseURL string) *Store {
	return &Store{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}
}

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Save decodes a "data:<mime>;base64,<payload>" string, writes the bytes
// under subdir and returns the reference URL. The file name is derived from
// the content hash so identical uploads share one file.
func (s *Store) Save(subdir, encoded string) (string, error) {
	mime, payload, err := splitDataURL(encoded)
	if err != nil {
		return "", err
	}

	ext, ok := extensions[mime]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", mime)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode image payload: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("image payload is empty")
	}

	sum := sha256.Sum256(raw)
	name := hex.EncodeToString(sum[:16]) + ext

	dir := filepath.Join(s.Root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), raw, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	return s.BaseURL + "/" + path.Join(subdir, name), nil
}

// Remove deletes a previously saved image by its reference URL. Unknown
// references are ignored.
func (s *Store) Remove(ref string) error {
	rel, ok := strings.CutPrefix(ref, s.BaseURL+"/")
	if !ok {
		return nil
	}
	rel = filepath.Clean("/" + rel)[1:]
	target := filepath.Join(s.Root, rel)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

func splitDataURL(encoded string) (mime, payload string, err error) {
	trimmed := strings.TrimSpace(encoded)
	if !strings.HasPrefix(trimmed, "data:") {
		return "", "", fmt.Errorf("image must be a base64 data URL")
	}
	meta, payload, ok := strings.Cut(trimmed[len("data:"):], ",")
	if !ok {
		return "", "", fmt.Errorf("malformed image data URL")
	}
	mime, _, _ = strings.Cut(meta, ";")
	if mime == "" {
		return "", "", fmt.Errorf("image data URL is missing a media type")
	}
	return mime, payload, nil
}
