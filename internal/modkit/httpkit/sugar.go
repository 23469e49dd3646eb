package httpkit

import "net/http"

// Get registers a GET handler that goes through the envelope adapter
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, Call(h))
}

// GetHead registers the same Response handler for GET and HEAD
// HEAD responses keep headers and status but drop the body
func GetHead(r Router, path string, h func(*http.Request) Response) {
	fn := Handle(h)
	r.Get(path, fn)
	r.Head(path, fn)
}
