package encoder

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var frameRe = regexp.MustCompile(`frame=\s*(\d+)`)

// tailLines is how much stderr to keep for error reporting.
const tailLines = 20

// scanProgress reads ffmpeg's stderr, invoking onFrame with each progress
// update it finds, and returns the last lines of output for error reporting.
// ffmpeg overwrites its status line with carriage returns, so the stream is
// split on both CR and LF.
func scanProgress(r io.Reader, onFrame func(int)) string {
	sc := bufio.NewScanner(r)
	sc.Split(scanCRorLF)

	var tail []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}

		tail = append(tail, line)
		if len(tail) > tailLines {
			tail = tail[1:]
		}

		if m := frameRe.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && onFrame != nil {
				onFrame(n)
			}
		}
	}
	return strings.Join(tail, "\n")
}

// scanCRorLF is a bufio.SplitFunc that treats both \r and \n as line
// terminators.
func scanCRorLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
