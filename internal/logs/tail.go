package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const pollInterval = 250 * time.Millisecond

// TailOptions selects where reading starts. A negative Offset returns the
// last Limit lines; Follow with a positive Wait blocks until new lines arrive.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	Filter Filter
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads the daemon log file. Lines that do not match opts.Filter are
// dropped; the returned offset still advances past them. A trailing line
// without a newline is left for the next call.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts.Wait = max(opts.Wait, 0)

	var (
		result TailResult
		err    error
	)
	if opts.Offset < 0 {
		result, err = lastLines(path, opts.Limit)
	} else {
		result, err = linesFrom(path, opts.Offset)
	}
	if err != nil {
		return result, err
	}
	if opts.Follow && opts.Wait > 0 && len(result.Lines) == 0 {
		result, err = poll(ctx, path, result.Offset, opts.Wait)
		if err != nil {
			return result, err
		}
	}
	if !opts.Filter.empty() {
		result.Lines = opts.Filter.Apply(result.Lines)
	}
	return result, nil
}

// lastLines returns up to limit complete lines from the end of the file. A
// non-positive limit only reports the current end offset.
func lastLines(path string, limit int) (TailResult, error) {
	var ring []string
	if limit > 0 {
		ring = make([]string, 0, limit)
	}
	end, err := scanLines(path, 0, func(line string) {
		if limit <= 0 {
			return
		}
		if len(ring) == limit {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, line)
	})
	if err != nil {
		return TailResult{}, err
	}
	return TailResult{Lines: ring, Offset: end}, nil
}

func linesFrom(path string, offset int64) (TailResult, error) {
	var lines []string
	end, err := scanLines(path, offset, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		return TailResult{Offset: offset}, err
	}
	return TailResult{Lines: lines, Offset: end}, nil
}

// scanLines calls visit for each complete line starting at offset and returns
// the offset just past the last complete line. A missing file yields offset
// 0, and an offset beyond the file size restarts at 0 because the file was
// rotated.
func scanLines(path string, offset int64, visit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return offset, fmt.Errorf("log path %q is a directory", path)
	}
	if offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	pos := offset
	for {
		chunk, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return pos, nil
			}
			return pos, fmt.Errorf("read log file: %w", err)
		}
		pos += int64(len(chunk))
		visit(strings.TrimRight(chunk, "\r\n"))
	}
}

func poll(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		result, err := linesFrom(path, offset)
		if err != nil || len(result.Lines) > 0 || !time.Now().Before(deadline) {
			return result, err
		}
		offset = result.Offset
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, ctx.Err()
		case <-ticker.C:
		}
	}
}
