package ring

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Producer selects how publishers claim sequences.
type Producer int

const (
	// MultiWriter allows any number of goroutines to publish concurrently.
	MultiWriter Producer = iota
	// SingleWriter skips the atomic increment; exactly one goroutine may publish.
	SingleWriter
)

func (p Producer) String() string {
	switch p {
	case MultiWriter:
		return "multi"
	case SingleWriter:
		return "single"
	}
	return fmt.Sprintf("Producer(%d)", int(p))
}

func ParseProducer(s string) (Producer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "multi", "multi-writer":
		return MultiWriter, nil
	case "single", "single-writer":
		return SingleWriter, nil
	}
	return MultiWriter, fmt.Errorf("unknown producer mode %q", s)
}

type sequencer interface {
	// next claims the next sequence to publish.
	next() int64
	// claimed is the number of sequences handed out so far.
	claimed() int64
}

func newSequencer(p Producer) sequencer {
	if p == SingleWriter {
		return &singleSequencer{}
	}
	return &multiSequencer{}
}

type singleSequencer struct {
	n atomic.Int64
}

func (s *singleSequencer) next() int64 {
	v := s.n.Load()
	s.n.Store(v + 1)
	return v
}

func (s *singleSequencer) claimed() int64 {
	return s.n.Load()
}

type multiSequencer struct {
	n atomic.Int64
}

func (s *multiSequencer) next() int64 {
	return s.n.Add(1) - 1
}

func (s *multiSequencer) claimed() int64 {
	return s.n.Load()
}
