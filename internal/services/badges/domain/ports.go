package domain

import "context"

// Checkout is a fetched working tree pinned at CommitID
type Checkout struct {
	Path     string
	CommitID string
	// Cleanup removes the working tree, it is never nil
	Cleanup func()
}

// Fetcher is the version control collaborator
type Fetcher interface {
	// Head resolves the commit the coordinate currently points at without fetching objects
	Head(ctx context.Context, c Coordinate) (string, error)
	// Checkout fetches or updates a working tree for the coordinate
	Checkout(ctx context.Context, c Coordinate) (Checkout, error)
}

// Scanner is the line counting collaborator
type Scanner interface {
	Scan(ctx context.Context, dir string) (Report, error)
}

// FetcherFunc adapts plain functions to Fetcher, handy in tests
type FetcherFunc struct {
	HeadFn     func(ctx context.Context, c Coordinate) (string, error)
	CheckoutFn func(ctx context.Context, c Coordinate) (Checkout, error)
}

// Head implements Fetcher
func (f FetcherFunc) Head(ctx context.Context, c Coordinate) (string, error) {
	return f.HeadFn(ctx, c)
}

// Checkout implements Fetcher
func (f FetcherFunc) Checkout(ctx context.Context, c Coordinate) (Checkout, error) {
	return f.CheckoutFn(ctx, c)
}

// ScannerFunc adapts a function to Scanner
type ScannerFunc func(ctx context.Context, dir string) (Report, error)

// Scan implements Scanner
func (f ScannerFunc) Scan(ctx context.Context, dir string) (Report, error) { return f(ctx, dir) }
