package workflow

import "sync"

// Requests is the FIFO list of user-requested filenames. Requested
// songs jump the similarity cascade and bypass the duplicate and
// blocked-artist checks.
type Requests struct {
	mu        sync.Mutex
	filenames []string
}

// NewRequests returns an empty request list.
func NewRequests() *Requests {
	return &Requests{}
}

// Add appends a request.
func (r *Requests) Add(filename string) {
	if filename == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filenames = append(r.filenames, filename)
}

// Has reports whether the filename is requested.
func (r *Requests) Has(filename string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, request := range r.filenames {
		if request == filename {
			return true
		}
	}
	return false
}

// Pop removes the first occurrence of the filename.
func (r *Requests) Pop(filename string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, request := range r.filenames {
		if request == filename {
			r.filenames = append(r.filenames[:i], r.filenames[i+1:]...)
			return
		}
	}
}

// All returns the pending requests in order.
func (r *Requests) All() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.filenames))
	copy(out, r.filenames)
	return out
}
