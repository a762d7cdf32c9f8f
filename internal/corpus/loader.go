package corpus

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/textanasearch/textana/pkg/config"
	apperrors "github.com/textanasearch/textana/pkg/errors"
)

// Loader resolves filesystem paths into documents and owns the raw-text,
// line, and token stores for the current session. Documents are keyed by
// path: loading a known path overwrites it, loading a new path appends it.
// Stores accumulate across Load calls; downstream structures are rebuilt
// wholesale from the full stores after every load.
type Loader struct {
	extensions     map[string]struct{}
	encodingPolicy string

	raw    map[string]string
	lines  map[string][]string
	tokens map[string][]string
	order  []string

	logger *slog.Logger
}

// stagedDocument holds one fully read document before commit. Staging keeps
// a failed load from leaving half of its paths behind.
type stagedDocument struct {
	path   string
	raw    string
	lines  []string
	tokens []string
}

// NewLoader creates a Loader honoring the configured extensions and
// encoding policy.
func NewLoader(cfg config.LoaderConfig) *Loader {
	exts := make(map[string]struct{}, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &Loader{
		extensions:     exts,
		encodingPolicy: cfg.EncodingPolicy,
		raw:            make(map[string]string),
		lines:          make(map[string][]string),
		tokens:         make(map[string][]string),
		logger:         slog.Default().With("component", "loader"),
	}
}

// Load resolves paths (files or directories, recursively) into eligible
// documents, reads them all, and only then commits them to the stores. A
// path that is neither an eligible file nor a directory aborts the whole
// call with NotFound before anything is committed; documents from earlier
// Load calls are unaffected. It returns the paths committed by this call.
func (l *Loader) Load(paths []string) ([]string, error) {
	files, err := l.resolve(paths)
	if err != nil {
		return nil, err
	}

	staged := make([]stagedDocument, 0, len(files))
	for _, file := range files {
		doc, err := l.read(file)
		if err != nil {
			return nil, err
		}
		staged = append(staged, doc)
	}

	committed := make([]string, 0, len(staged))
	for _, doc := range staged {
		if _, known := l.raw[doc.path]; !known {
			l.order = append(l.order, doc.path)
		}
		l.raw[doc.path] = doc.raw
		l.lines[doc.path] = doc.lines
		l.tokens[doc.path] = doc.tokens
		committed = append(committed, doc.path)
	}
	l.logger.Info("documents loaded",
		"requested_paths", len(paths),
		"documents", len(committed),
		"corpus_size", len(l.order),
	)
	return committed, nil
}

// resolve expands the input path list into the ordered list of eligible
// files. Directories are walked recursively; every eligible file inside
// counts. Any path that is neither an eligible file nor a directory fails
// the whole resolution.
func (l *Loader) resolve(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, apperrors.NotFoundf("path %q does not exist or is not an eligible text file", p)
		}
		switch {
		case info.IsDir():
			err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return apperrors.IOFailuref("walking directory %q: %v", path, err)
				}
				if !d.IsDir() && l.eligible(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		case l.eligible(p):
			files = append(files, p)
		default:
			return nil, apperrors.NotFoundf("path %q does not exist or is not an eligible text file", p)
		}
	}
	return files, nil
}

func (l *Loader) eligible(path string) bool {
	_, ok := l.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (l *Loader) read(path string) (stagedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return stagedDocument{}, apperrors.IOFailuref("reading file %q: %v", path, err)
	}
	text, err := l.sanitize(path, data)
	if err != nil {
		return stagedDocument{}, err
	}
	return stagedDocument{
		path:   path,
		raw:    text,
		lines:  splitLines(text),
		tokens: Tokenize(text),
	}, nil
}

// sanitize applies the configured encoding policy: "drop" silently removes
// malformed UTF-8 bytes, "fail" aborts the load.
func (l *Loader) sanitize(path string, data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	if l.encodingPolicy == config.EncodingFail {
		return "", apperrors.IOFailuref("file %q contains malformed UTF-8", path)
	}
	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r != utf8.RuneError || size > 1 {
			b.WriteRune(r)
		}
		data = data[size:]
	}
	l.logger.Debug("malformed encoding bytes dropped", "path", path)
	return b.String(), nil
}

// splitLines yields the raw lines of text with terminators stripped and
// spacing and case preserved. A trailing newline does not produce a final
// empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Raw returns the raw-text store (path → full text).
func (l *Loader) Raw() map[string]string {
	return l.raw
}

// Lines returns the line store (path → 1-indexed raw lines).
func (l *Loader) Lines() map[string][]string {
	return l.lines
}

// Tokens returns the token store (path → normalized token sequence).
func (l *Loader) Tokens() map[string][]string {
	return l.tokens
}

// Documents returns the loaded document paths in load order.
func (l *Loader) Documents() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Len returns the number of loaded documents.
func (l *Loader) Len() int {
	return len(l.order)
}
