package cmd

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type outputKey struct{}

// WithOutput returns a new context.Context directing command results to w.
// Commands write to standard output by default.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// Binding is one binding expression and where it was read from.
type Binding struct {
	Origin string
	Text   string
}

type (
	sourceFilesKey struct{}

	// namedReader is an opened source and the name used in diagnostics.
	namedReader struct {
		name string
		io.Reader
	}

	sourceFiles struct {
		read     []namedReader
		hasStdin bool
	}
)

// readers returns the sources in reading order, stdin last.
func (s *sourceFiles) readers() []namedReader {
	if s == nil {
		return nil
	}

	readers := s.read
	if s.hasStdin {
		readers = append(readers[:len(readers):len(readers)],
			namedReader{name: "stdin", Reader: os.Stdin})
	}

	return readers
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// commentPrefix starts a source line that holds no binding.
const commentPrefix = "#"

// WithSourceFiles returns a new context.Context holding the binding source
// files named by sources.
//
// Sources are deduplicated by resolving symlinks and comparing device/inode
// pairs. All occurrences of "-" are replaced with a single stdin reader,
// which is read after all regular files.
func WithSourceFiles(ctx context.Context, sources []string) context.Context {
	return context.WithValue(ctx, sourceFilesKey{}, buildSourceFiles(sources))
}

func buildSourceFiles(sources []string) *sourceFiles {
	if len(sources) == 0 {
		return nil
	}

	var srcs sourceFiles

	srcs.read = make([]namedReader, 0, len(sources))
	seen := make(map[fileKey]struct{})

	stdinInfo, _ := os.Stdin.Stat()
	stdinKey, _ := makeFileKey(stdinInfo)

	for _, src := range sources {
		if src == stdinSource {
			seen[stdinKey] = struct{}{}

			continue
		}

		reader, ok := openUniqueFile(src, seen)
		if !ok {
			continue
		}

		srcs.read = append(srcs.read, namedReader{name: src, Reader: reader})
	}

	// Stdin may have been included via "-" or as a named file.
	// Both of which will be represented by stdinKey in seen.
	_, srcs.hasStdin = seen[stdinKey]

	if len(srcs.read) == 0 && !srcs.hasStdin {
		return nil
	}

	return &srcs
}

// openUniqueFile opens the file at path if it hasn't been seen before.
// It resolves symlinks and uses device/inode to detect duplicates.
func openUniqueFile(path string, seen map[fileKey]struct{}) (io.Reader, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, false
	}

	key, ok := makeFileKey(info)
	if !ok {
		return nil, false
	}

	if _, exists := seen[key]; exists {
		return nil, false
	}

	seen[key] = struct{}{}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, false
	}

	return file, true
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	if info == nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

func sourceFilesFrom(ctx context.Context) *sourceFiles {
	s, _ := ctx.Value(sourceFilesKey{}).(*sourceFiles)

	return s
}

// bindings collects the bindings given as args followed by those read from
// the source files in ctx. Blank lines and lines starting with "#" are
// skipped.
func bindings(ctx context.Context, args []string) ([]Binding, error) {
	out := make([]Binding, 0, len(args))

	for i, arg := range args {
		out = append(out, Binding{Origin: "arg " + strconv.Itoa(i+1), Text: arg})
	}

	for _, src := range sourceFilesFrom(ctx).readers() {
		scan := bufio.NewScanner(src)
		line := 0

		for scan.Scan() {
			line++

			text := strings.TrimSpace(scan.Text())
			if text == "" || strings.HasPrefix(text, commentPrefix) {
				continue
			}

			out = append(out, Binding{
				Origin: src.name + ":" + strconv.Itoa(line),
				Text:   text,
			})
		}

		if c, ok := src.Reader.(io.Closer); ok && src.Reader != os.Stdin {
			_ = c.Close()
		}

		if err := scan.Err(); err != nil {
			return nil, err
		}
	}

	if len(out) == 0 {
		return nil, ErrNoBindings
	}

	return out, nil
}
