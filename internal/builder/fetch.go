package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/unikit-build/unikit/internal/msg"
	"golang.org/x/sync/errgroup"
)

// DepsDir is where git-addressed dependencies are checked out, next to the
// descriptor.
const DepsDir = "_deps"

var depShortcuts = map[string]string{
	"gh:": "https://github.com/",
	"gl:": "https://gitlab.com/",
	"bb:": "https://bitbucket.org/",
	"sr:": "https://sr.ht/",
	"cb:": "https://codeberg.org/",
}

const gitPrefix = "git:"

// remoteURL resolves a dependency string to a clonable URL, or "" when the
// dependency is a plain library name left to the external package manager.
func remoteURL(dep string) string {
	if strings.HasPrefix(dep, gitPrefix) {
		return dep[len(gitPrefix):]
	}
	for shortcut, url := range depShortcuts {
		if strings.HasPrefix(dep, shortcut) {
			return url + dep[len(shortcut):]
		}
	}
	return ""
}

// FetchDeps clones every git-addressed dependency into basedir/_deps,
// skipping names the package manager resolves and checkouts that already
// exist. Clones of distinct dependencies touch disjoint directories, so
// they run concurrently.
func FetchDeps(deps []string, basedir string, jobs int) error {
	depsDir := filepath.Join(basedir, DepsDir)

	var eg errgroup.Group
	eg.SetLimit(jobs)

	for _, dep := range deps {
		url := remoteURL(dep)
		if url == "" {
			continue
		}

		parsed := parseGitURL(url)
		name := strings.TrimSuffix(filepath.Base(parsed.cleanURL), ".git")
		dest := filepath.Join(depsDir, name)

		if stat, err := os.Stat(dest); err == nil && stat.IsDir() {
			msg.Info("dependency %s already fetched", name)
			continue
		}

		eg.Go(func() error {
			msg.Info("fetching %s -> %s", dep, dest)
			if err := cloneGitRepo(parsed, dest); err != nil {
				return fmt.Errorf("failed to fetch dependency %q: %w", dep, err)
			}
			return nil
		})
	}

	return eg.Wait()
}

type gitURL struct {
	cleanURL    string
	branch      string
	commitOrTag string
}

// someone/something@master#0.1.0
// someone/something@feature-branch#12345abc
// someone/something#12345abc
func parseGitURL(rawURL string) (res gitURL) {
	parts := strings.SplitN(rawURL, "#", 2)
	baseURL := parts[0]
	if len(parts) == 2 {
		res.commitOrTag = parts[1]
	}

	parts = strings.SplitN(baseURL, "@", 2)
	res.cleanURL = parts[0]
	if len(parts) == 2 {
		res.branch = parts[1]
	}

	if !strings.HasSuffix(res.cleanURL, ".git") {
		res.cleanURL += ".git"
	}

	return
}

// cloneGitRepo clones a Git remote into the specified directory
func cloneGitRepo(parsedURL gitURL, toWhere string) error {
	cloneOptions := &git.CloneOptions{
		URL:               parsedURL.cleanURL,
		Progress:          os.Stdout,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	}

	if parsedURL.commitOrTag == "" {
		cloneOptions.Depth = 1 // we can do a shallow clone of the latest commit
	}

	if parsedURL.branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(parsedURL.branch)
		cloneOptions.SingleBranch = true
	}

	repo, err := git.PlainClone(toWhere, cloneOptions)
	if err != nil {
		return err
	}

	if parsedURL.commitOrTag != "" {
		w, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("could not get worktree: %w", err)
		}

		revision := parsedURL.commitOrTag
		hash, err := repo.ResolveRevision(plumbing.Revision(revision))
		if err != nil {
			return fmt.Errorf("could not resolve revision `%s`: %w", revision, err)
		}

		err = w.Checkout(&git.CheckoutOptions{
			Hash:  *hash,
			Force: true,
		})
		if err != nil {
			return fmt.Errorf("failed to checkout `%s`: %w", revision, err)
		}
	}

	return nil
}
