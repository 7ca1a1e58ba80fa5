package imageprobe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/slidegrid/pkg/errors"
	"github.com/matzehuels/slidegrid/pkg/httputil"
)

// Source opens the bytes behind an image reference.
type Source interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Versioner is implemented by sources that can tell when the bytes behind a
// reference change. [Prober] folds the version into its cache key.
type Versioner interface {
	Version(ctx context.Context, ref string) (string, error)
}

// IsRemote reports whether ref is an http(s) URL.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// FileSource resolves relative references under Root.
type FileSource struct {
	Root string
}

// Open validates ref and opens Root/ref. A missing file fails with
// FILE_NOT_FOUND.
func (s FileSource) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	if err := errors.ValidateImageRef(ref); err != nil {
		return nil, err
	}
	if IsRemote(ref) {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s: remote reference given to file source", ref)
	}
	path := filepath.Join(s.Root, filepath.FromSlash(ref))
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", ref)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImageRead, err, "%s", ref)
	}
	return f, nil
}

// Version returns the size and modification time of Root/ref, so a file
// replaced under the same name gets a new version.
func (s FileSource) Version(_ context.Context, ref string) (string, error) {
	if err := errors.ValidateImageRef(ref); err != nil {
		return "", err
	}
	if IsRemote(ref) {
		return "", errors.New(errors.ErrCodeInvalidPath, "%s: remote reference given to file source", ref)
	}
	fi, err := os.Stat(filepath.Join(s.Root, filepath.FromSlash(ref)))
	if os.IsNotExist(err) {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", ref)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeImageRead, err, "%s", ref)
	}
	return fmt.Sprintf("%d-%d", fi.Size(), fi.ModTime().UnixNano()), nil
}

// HTTPSource downloads http(s) references through a caching client.
type HTTPSource struct {
	Client *httputil.Client
}

func (s HTTPSource) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if !IsRemote(ref) {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s: not an http(s) URL", ref)
	}
	body, err := s.Client.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

// Router sends URLs to Remote and everything else to Local. A nil Remote
// rejects URLs.
type Router struct {
	Local  Source
	Remote Source
}

// NewRouter returns a Router over the upload root and an HTTP client.
func NewRouter(root string, client *httputil.Client) Router {
	r := Router{Local: FileSource{Root: root}}
	if client != nil {
		r.Remote = HTTPSource{Client: client}
	}
	return r
}

func (r Router) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if IsRemote(ref) {
		if r.Remote == nil {
			return nil, errors.New(errors.ErrCodeUnsupported, "%s: remote images are disabled", ref)
		}
		return r.Remote.Open(ctx, ref)
	}
	return r.Local.Open(ctx, ref)
}

// Version delegates local references to Local when it is a [Versioner].
// Remote references have no version; their bytes are cached by the HTTP
// client.
func (r Router) Version(ctx context.Context, ref string) (string, error) {
	if IsRemote(ref) {
		return "", nil
	}
	if v, ok := r.Local.(Versioner); ok {
		return v.Version(ctx, ref)
	}
	return "", nil
}

// ReadAll opens ref on src and returns its bytes.
func ReadAll(ctx context.Context, src Source, ref string) ([]byte, error) {
	rc, err := src.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImageRead, err, "%s", ref)
	}
	return data, nil
}

var (
	_ Source = FileSource{}
	_ Source = HTTPSource{}
	_ Source = Router{}

	_ Versioner = FileSource{}
	_ Versioner = Router{}
)
