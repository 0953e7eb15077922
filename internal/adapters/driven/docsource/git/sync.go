// Package git fetches the documentation repository to local disk before the
// filesystem source walks it.
package git

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
)

// Sync clones the repository at url into dir, or fast-forwards an existing
// clone. A repository that is already up to date is not an error.
func Sync(ctx context.Context, url, dir string) error {
	_, err := gogit.PlainCloneContext(ctx, dir, false, &gogit.CloneOptions{
		URL:   url,
		Depth: 1,
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, gogit.ErrRepositoryAlreadyExists) {
		return fmt.Errorf("cloning %s: %w", url, err)
	}

	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dir, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &gogit.PullOptions{RemoteName: "origin"})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pulling %s: %w", url, err)
	}
	return nil
}
