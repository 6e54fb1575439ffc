package overlay

import "sync"

// Notice records one file overwritten by Overlay.
type Notice struct {
	MappingIndex int
	Mapping      string
	// Path is the slash-separated path relative to the overlay destination.
	Path string
	// Dest is the overwritten file on disk.
	Dest string
}

// NoticeSink receives collision notices.
type NoticeSink interface {
	Notice(n Notice)
}

// NoticeFunc adapts a function to NoticeSink.
type NoticeFunc func(Notice)

func (f NoticeFunc) Notice(n Notice) { f(n) }

// Recorder is a NoticeSink that keeps every notice in arrival order.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notice(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Count returns the number of recorded notices.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

// CountByMapping returns notice counts keyed by mapping name.
func (r *Recorder) CountByMapping() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int)
	for _, n := range r.notices {
		out[n.Mapping]++
	}
	return out
}

// Reset discards recorded notices.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}

// multiSink fans a notice out to several sinks.
type multiSink []NoticeSink

func (m multiSink) Notice(n Notice) {
	for _, s := range m {
		s.Notice(n)
	}
}

// Tee returns a sink forwarding to every non-nil sink.
func Tee(sinks ...NoticeSink) NoticeSink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
