package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Record is one line of a session log. Known fields are decoded for
// metadata extraction; Raw holds the original line verbatim so unknown
// record shapes survive a round trip untouched.
type Record struct {
	Type      string
	Timestamp string
	CWD       string
	GitBranch string
	SessionID string
	Model     string

	Raw json.RawMessage
}

// recordProbe is the decode target for the fields this tool understands.
type recordProbe struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	CWD       string `json:"cwd"`
	GitBranch string `json:"gitBranch"`
	SessionID string `json:"sessionId"`
	Message   struct {
		Role  string `json:"role"`
		Model string `json:"model"`
	} `json:"message"`
}

// Time parses the record timestamp. ok is false when the record carries
// no parseable timestamp.
func (r Record) Time() (time.Time, bool) {
	return parseTimestamp(r.Timestamp)
}

const maxLineSize = 10 * 1024 * 1024

// Read parses a session file line by line. Malformed lines and lines
// over the size cap are counted in skipped and dropped; blank lines are
// ignored. ErrUnreadable is returned only when the file itself cannot be
// opened or read.
func Read(path string) (records []Record, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	// assistant turns with large tool results can produce very long lines
	reader := bufio.NewReaderSize(f, 64*1024)

	for {
		line, tooLong, readErr := readLine(reader)
		if readErr != nil && readErr != io.EOF {
			return nil, 0, fmt.Errorf("%w: %v", ErrUnreadable, readErr)
		}

		switch {
		case tooLong:
			skipped++
		case len(line) == 0 || isBlank(line):
		default:
			var probe recordProbe
			if err := json.Unmarshal(line, &probe); err != nil {
				skipped++
				break
			}
			records = append(records, Record{
				Type:      probe.Type,
				Timestamp: probe.Timestamp,
				CWD:       probe.CWD,
				GitBranch: probe.GitBranch,
				SessionID: probe.SessionID,
				Model:     probe.Message.Model,
				Raw:       json.RawMessage(line),
			})
		}

		if readErr == io.EOF {
			return records, skipped, nil
		}
	}
}

// readLine returns the next line without its terminator, copied out of
// the reader's buffer. Lines over maxLineSize are consumed to their end
// and reported as tooLong rather than failing the whole file.
func readLine(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		buf = append(buf, chunk...)

		if err == bufio.ErrBufferFull {
			if len(buf) > maxLineSize {
				return nil, true, discardLine(r)
			}
			continue
		}
		if err != nil && err != io.EOF {
			return nil, false, err
		}

		if n := len(buf); n > 0 && buf[n-1] == '\n' {
			buf = buf[:n-1]
		}
		if n := len(buf); n > 0 && buf[n-1] == '\r' {
			buf = buf[:n-1]
		}
		if len(buf) > maxLineSize {
			return nil, true, err
		}
		return buf, false, err
	}
}

// discardLine consumes input up to and including the next newline.
func discardLine(r *bufio.Reader) error {
	for {
		_, err := r.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			continue
		}
		return err
	}
}

func isBlank(line []byte) bool {
	for _, b := range line {
		switch b {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}
