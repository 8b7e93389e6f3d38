package ribsource

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hervehildenbrand/peer-stats/pkg/models"
)

const (
	dumpChannelSize = 10000

	// RIB dump lines can carry very long AS paths and community lists.
	maxLineBytes = 4 * 1024 * 1024
)

// Source streams routing records. Records() is closed when the stream
// ends; Err() reports the first fatal error after that.
type Source interface {
	Start()
	Stop()
	Records() <-chan models.RoutingRecord
	Err() error
}

// DumpSource reads a RIB dump in machine-readable text form from a local
// path or an HTTP(S) URL. Dumps ending in .bz2 or .gz are decompressed
// transparently. Malformed lines are counted and skipped, never fatal.
type DumpSource struct {
	location string
	records  chan models.RoutingRecord
	done     chan struct{}
	wg       sync.WaitGroup
	running  atomic.Bool

	mu  sync.Mutex
	err error

	linesParsed  uint64
	linesSkipped uint64
}

// NewDumpSource creates a source for the given dump path or URL.
func NewDumpSource(location string) *DumpSource {
	return &DumpSource{
		location: location,
		records:  make(chan models.RoutingRecord, dumpChannelSize),
		done:     make(chan struct{}),
	}
}

// Records returns the record channel. It is closed when the dump has
// been fully read or the source is stopped.
func (s *DumpSource) Records() <-chan models.RoutingRecord {
	return s.records
}

// Start begins reading the dump in a goroutine.
func (s *DumpSource) Start() {
	if s.running.Swap(true) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.records)
		if err := s.stream(); err != nil {
			s.setErr(err)
			log.Printf("[dump] Read error: %v", err)
		}
	}()
	log.Printf("[dump] Reading %s", s.location)
}

// Stop aborts an in-progress read. Reading to the end of the dump does
// not require calling Stop.
func (s *DumpSource) Stop() {
	if !s.running.Swap(false) {
		return
	}
	close(s.done)
	s.wg.Wait()
}

// Err returns the first fatal error encountered, if any. Only meaningful
// after Records() has been drained.
func (s *DumpSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stats returns read statistics.
func (s *DumpSource) Stats() map[string]interface{} {
	return map[string]interface{}{
		"location":      s.location,
		"lines_parsed":  atomic.LoadUint64(&s.linesParsed),
		"lines_skipped": atomic.LoadUint64(&s.linesSkipped),
	}
}

func (s *DumpSource) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *DumpSource) stream() error {
	raw, err := s.open()
	if err != nil {
		return err
	}
	defer raw.Close()

	reader, err := decompress(s.location, raw)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		select {
		case <-s.done:
			return nil
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rec, err := ParseLine(line)
		if err != nil {
			if atomic.AddUint64(&s.linesSkipped, 1) <= 10 {
				log.Printf("[dump] Skipping line: %v", err)
			}
			continue
		}
		atomic.AddUint64(&s.linesParsed, 1)

		select {
		case s.records <- rec:
		case <-s.done:
			return nil
		}
	}
	return scanner.Err()
}

func (s *DumpSource) open() (io.ReadCloser, error) {
	if strings.HasPrefix(s.location, "http://") || strings.HasPrefix(s.location, "https://") {
		resp, err := http.Get(s.location)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", s.location, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: status %s", s.location, resp.Status)
		}
		return resp.Body, nil
	}

	f, err := os.Open(s.location)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.location, err)
	}
	return f, nil
}

// decompress wraps r according to the dump's file extension. The stdlib
// can read bz2 but not write it, which is fine here: dumps are input only.
func decompress(location string, r io.Reader) (io.Reader, error) {
	switch {
	case strings.HasSuffix(location, ".bz2"):
		return bzip2.NewReader(r), nil
	case strings.HasSuffix(location, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", location, err)
		}
		return gz, nil
	default:
		return r, nil
	}
}
