package gitremote

import (
	"context"

	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/go-git/go-git/v5/storage/memory"
)

// cloneRequest describes one checkout
type cloneRequest struct {
	URL   string
	Ref   plumbing.ReferenceName
	Auth  transport.AuthMethod
	Depth int
}

// remoteOps is the network seam, tests swap it for a fake
type remoteOps interface {
	List(ctx context.Context, url string, auth transport.AuthMethod) ([]*plumbing.Reference, error)
	Clone(ctx context.Context, dir string, req cloneRequest) (string, error)
}

type goGitOps struct{}

// List asks the remote for its refs without touching local storage
func (goGitOps) List(ctx context.Context, url string, auth transport.AuthMethod) ([]*plumbing.Reference, error) {
	rem := gogit.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: gogit.DefaultRemoteName,
		URLs: []string{url},
	})
	return rem.ListContext(ctx, &gogit.ListOptions{Auth: auth})
}

// Clone checks out a single branch into dir and returns the checked out commit
func (goGitOps) Clone(ctx context.Context, dir string, req cloneRequest) (string, error) {
	wt := osfs.New(dir)
	dot, err := wt.Chroot(gogit.GitDirName)
	if err != nil {
		return "", err
	}
	st := filesystem.NewStorage(dot, cache.NewObjectLRUDefault())

	repo, err := gogit.CloneContext(ctx, st, wt, &gogit.CloneOptions{
		URL:           req.URL,
		Auth:          req.Auth,
		ReferenceName: req.Ref,
		SingleBranch:  true,
		Depth:         req.Depth,
		Tags:          gogit.NoTags,
	})
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", err
	}
	return head.Hash().String(), nil
}
