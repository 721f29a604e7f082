// Package cloner clones matched forks into per-practice working copies.
package cloner

import (
	"context"
	"fmt"
	"strings"

	"github.com/dlumbrer/Code-docencia/internal/gitlabapi"
	git "github.com/go-git/go-git/v5"
	"go.uber.org/zap"
)

// Cloner performs local clones of fork repositories, embedding the operator
// credentials in the clone URL.
type Cloner struct {
	user   string
	token  string
	logger *zap.Logger
	// cloneFn is injected for testability; the default uses go-git.
	cloneFn func(ctx context.Context, dir, cloneURL string) error
}

// New creates a Cloner using the given operator identity and token.
func New(user, token string, logger *zap.Logger) *Cloner {
	return &Cloner{
		user:   user,
		token:  token,
		logger: logger,
		cloneFn: func(ctx context.Context, dir, cloneURL string) error {
			_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: cloneURL})
			return err
		},
	}
}

// AuthURL rewrites the scheme-authority prefix of a clone URL to embed the
// operator identity and token as credentials. Only the first occurrence of
// the scheme is rewritten.
func AuthURL(cloneURL, user, token string) string {
	return strings.Replace(cloneURL, "https://", fmt.Sprintf("https://%s:%s@", user, token), 1)
}

// Clone clones one fork into dir. Failures are logged with the underlying
// git error text and returned; the caller continues with the next fork.
func (c *Cloner) Clone(ctx context.Context, fork gitlabapi.Fork, dir string) error {
	authURL := AuthURL(fork.CloneURL, c.user, c.token)
	c.logger.Info("cloning repository",
		zap.String("repo", fork.CloneURL),
		zap.String("dir", dir))
	if err := c.cloneFn(ctx, dir, authURL); err != nil {
		c.logger.Error("git clone failed",
			zap.String("repo", fork.CloneURL),
			zap.String("dir", dir),
			zap.Error(err))
		return fmt.Errorf("clone %s: %w", fork.CloneURL, err)
	}
	return nil
}
