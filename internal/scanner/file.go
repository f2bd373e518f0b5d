package scanner

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/transform"

	scanerrors "github.com/conneroisu/srcguard/internal/errors"
	"github.com/conneroisu/srcguard/internal/results"
)

// maxLineBytes bounds a single physical line. A longer line stops the file
// with a read error; issues on the lines before it are still returned.
const maxLineBytes = 16 * 1024 * 1024

// ScanFile applies the catalogue to every line of path. Issues are ordered
// by line, then by pattern registration order. When reading fails part way
// through, the issues found so far are returned together with the error.
func (s *Scanner) ScanFile(path string) (results.FileIssues, error) {
	fi := results.FileIssues{File: path}

	file, err := os.Open(path)
	if err != nil {
		return fi, scanerrors.NewFileReadError(scanerrors.CodeFileOpen, path, err)
	}
	defer file.Close()

	buffer := s.bufferPool.Get()
	defer s.bufferPool.Put(buffer)

	splitter := &lineSplitter{}
	lines := bufio.NewScanner(transform.NewReader(file, newLenientDecoder()))
	lines.Buffer(buffer, s.lineLimit)
	lines.Split(splitter.split)

	skipDirectives := s.skipTestDirectives && isTestPath(path)
	lineNo := 0
	for lines.Scan() {
		lineNo++
		line := lines.Text()
		trimmed := strings.TrimSpace(line)
		if skipDirectives && strings.HasPrefix(trimmed, "#") {
			continue
		}
		// Patterns see the line with its newline, as written on disk.
		if splitter.terminated {
			line += "\n"
		}

		for _, m := range s.catalogue.Match(line) {
			fi.Issues = append(fi.Issues, results.Issue{
				Kind:          m.Kind,
				File:          path,
				Line:          lineNo,
				RawText:       trimmed,
				MatchedTokens: m.Tokens,
			})
		}
	}
	if err := lines.Err(); err != nil {
		return fi, scanerrors.NewFileReadError(scanerrors.CodeFileRead, path, err)
	}

	return fi, nil
}

// isTestPath reports whether path lies in a test directory. Preprocessor
// lines in test sources are not scanned.
func isTestPath(path string) bool {
	return strings.Contains(filepath.ToSlash(path), "test/")
}

// newLenientDecoder drops bytes that are not valid UTF-8 instead of failing.
// A correctly encoded U+FFFD in the source is kept.
func newLenientDecoder() transform.Transformer {
	return invalidUTF8Dropper{}
}

type invalidUTF8Dropper struct {
	transform.NopResetter
}

func (invalidUTF8Dropper) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if c := src[nSrc]; c < utf8.RuneSelf {
			if nDst == len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = c
			nDst++
			nSrc++
			continue
		}

		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 {
			nSrc++
			continue
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], src[nSrc:nSrc+size])
		nSrc += size
	}
	return nDst, nSrc, nil
}

// lineSplitter is a bufio.SplitFunc source that accepts "\n", "\r\n" and a
// lone "\r" as line terminators and records whether the last token had one.
type lineSplitter struct {
	terminated bool
}

func (ls *lineSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			ls.terminated = true
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			ls.terminated = true
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if !atEOF {
			// Need one more byte to tell "\r" from "\r\n".
			return 0, nil, nil
		}
		ls.terminated = true
		return i + 1, data[:i], nil
	}

	if atEOF {
		ls.terminated = false
		return len(data), data, nil
	}
	return 0, nil, nil
}
