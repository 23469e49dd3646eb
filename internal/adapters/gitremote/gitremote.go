// Package gitremote resolves and checks out remote git repositories over https
package gitremote

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	perr "tokeisrv/internal/platform/errors"
	"tokeisrv/internal/platform/logger"
	"tokeisrv/internal/services/badges/domain"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/google/uuid"
)

// tokenUser is the basic auth user paired with an access token
const tokenUser = "x-access-token"

// Options configure a Remote
type Options struct {
	// WorkDir holds checkouts, empty means the os temp dir
	WorkDir string
	// Token is sent only to TokenHosts
	Token      string
	TokenHosts []string
	// Depth limits clone history, zero clones everything
	Depth int
	// URLFor overrides the clone url, defaults to Coordinate.RemoteURL
	URLFor func(domain.Coordinate) string
}

// Remote implements domain.Fetcher with go-git
type Remote struct {
	opts  Options
	hosts map[string]struct{}
	ops   remoteOps
}

var _ domain.Fetcher = (*Remote)(nil)

// New builds a Remote
func New(o Options) *Remote {
	if o.WorkDir == "" {
		o.WorkDir = os.TempDir()
	}
	if o.Depth < 0 {
		o.Depth = 0
	}
	if o.URLFor == nil {
		o.URLFor = domain.Coordinate.RemoteURL
	}
	hosts := make(map[string]struct{}, len(o.TokenHosts))
	for _, h := range o.TokenHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts[h] = struct{}{}
		}
	}
	return &Remote{opts: o, hosts: hosts, ops: goGitOps{}}
}

// Head lists remote refs and returns the commit the coordinate's branch points at
func (r *Remote) Head(ctx context.Context, c domain.Coordinate) (string, error) {
	_, hash, err := r.resolve(ctx, c)
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// Checkout clones the coordinate's branch into a fresh directory under WorkDir
// the returned Cleanup removes the directory
func (r *Remote) Checkout(ctx context.Context, c domain.Coordinate) (domain.Checkout, error) {
	ref, _, err := r.resolve(ctx, c)
	if err != nil {
		return domain.Checkout{}, err
	}

	if err := os.MkdirAll(r.opts.WorkDir, 0o755); err != nil {
		return domain.Checkout{}, perr.Wrap(err, perr.ErrorCodeUnknown, "create work dir")
	}
	dir := filepath.Join(r.opts.WorkDir, uuid.NewString())
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.C(ctx).Warn().Err(err).Str("dir", dir).Msg("checkout cleanup failed")
		}
	}

	commit, err := r.ops.Clone(ctx, dir, cloneRequest{
		URL:   r.opts.URLFor(c),
		Ref:   ref,
		Auth:  r.auth(c.Host),
		Depth: r.opts.Depth,
	})
	if err != nil {
		cleanup()
		return domain.Checkout{}, classify(err, "clone "+c.String())
	}
	if !validCommit(commit) {
		cleanup()
		return domain.Checkout{}, perr.Upstreamf("clone %s produced invalid commit %q", c.String(), commit)
	}

	logger.C(ctx).Debug().Str("dir", dir).Str("ref", ref.Short()).Str("commit", commit).Msg("checked out")
	return domain.Checkout{Path: dir, CommitID: commit, Cleanup: cleanup}, nil
}

func (r *Remote) resolve(ctx context.Context, c domain.Coordinate) (plumbing.ReferenceName, plumbing.Hash, error) {
	refs, err := r.ops.List(ctx, r.opts.URLFor(c), r.auth(c.Host))
	if err != nil {
		return "", plumbing.ZeroHash, classify(err, "list "+c.String())
	}
	return resolveBranch(refs, c.Branch)
}

// auth returns credentials only for configured hosts
func (r *Remote) auth(host string) transport.AuthMethod {
	if r.opts.Token == "" {
		return nil
	}
	if _, ok := r.hosts[strings.ToLower(host)]; !ok {
		return nil
	}
	return &githttp.BasicAuth{Username: tokenUser, Password: r.opts.Token}
}

// resolveBranch picks the requested branch, or the remote default
// the default is HEAD's target, then main, then master, then the first branch by name
func resolveBranch(refs []*plumbing.Reference, want string) (plumbing.ReferenceName, plumbing.Hash, error) {
	branches := map[plumbing.ReferenceName]plumbing.Hash{}
	var head *plumbing.Reference
	for _, ref := range refs {
		switch {
		case ref.Name() == plumbing.HEAD:
			head = ref
		case ref.Name().IsBranch() && ref.Type() == plumbing.HashReference:
			branches[ref.Name()] = ref.Hash()
		}
	}
	if len(branches) == 0 {
		return "", plumbing.ZeroHash, perr.NotFoundf("remote repository is empty")
	}

	pick := func(name plumbing.ReferenceName) (plumbing.ReferenceName, plumbing.Hash, bool) {
		h, ok := branches[name]
		return name, h, ok
	}

	if want != "" {
		if name, h, ok := pick(plumbing.NewBranchReferenceName(want)); ok {
			return name, h, nil
		}
		return "", plumbing.ZeroHash, perr.WithField(perr.NotFoundf("branch %q not found", want), "branch")
	}

	if head != nil && head.Type() == plumbing.SymbolicReference {
		if name, h, ok := pick(head.Target()); ok {
			return name, h, nil
		}
	}
	for _, b := range []string{"main", "master"} {
		if name, h, ok := pick(plumbing.NewBranchReferenceName(b)); ok {
			return name, h, nil
		}
	}
	names := make([]string, 0, len(branches))
	for n := range branches {
		names = append(names, n.String())
	}
	sort.Strings(names)
	name, h, _ := pick(plumbing.ReferenceName(names[0]))
	return name, h, nil
}

// classify maps go-git failures onto error codes, context errors pass through untouched
func classify(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, transport.ErrEmptyRemoteRepository),
		errors.Is(err, plumbing.ErrReferenceNotFound):
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeNotFound, "repository not found"), op)
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeUpstream, "authentication failed"), op)
	}
	if _, ok := perr.As(err); ok {
		return perr.WithOp(err, op)
	}
	return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUpstream, "%s failed", op), op)
}

func validCommit(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}
