package entry

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// MaxImageBytes bounds attachments read from disk.
const MaxImageBytes = 10 << 20

var ErrNotImage = errors.New("entry: file is not an image")

// ImageDataURL reads the file at path and encodes it as a data: URL, the
// same shape a browser FileReader produces for an image upload.
func ImageDataURL(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("entry: expand image path: %w", err)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return "", fmt.Errorf("entry: read image: %w", err)
	}
	if info.Size() > MaxImageBytes {
		return "", fmt.Errorf("entry: image %s is larger than %d bytes", path, MaxImageBytes)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return "", fmt.Errorf("entry: read image: %w", err)
	}
	return EncodeDataURL(data)
}

// EncodeDataURL sniffs the content type of data and returns a base64 data: URL.
func EncodeDataURL(data []byte) (string, error) {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w (detected %s)", ErrNotImage, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
