// Package gitctx captures a best-effort view of the enclosing git repository
// so reports and backup snapshots can be correlated with a commit.
package gitctx

import (
	git "github.com/go-git/go-git/v5"
)

// Context identifies the repository state at invocation time.
type Context struct {
	SHA    string `json:"sha,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// Collect returns repository context for the tree at target, or nil when
// target is not inside a git repository. Errors are deliberately swallowed:
// git metadata is decoration, never a precondition.
func Collect(target string) *Context {
	repo, err := git.PlainOpenWithOptions(target, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}
	head, err := repo.Head()
	if err != nil {
		return nil
	}
	ctx := &Context{SHA: head.Hash().String()}
	if head.Name().IsBranch() {
		ctx.Branch = head.Name().Short()
	}
	return ctx
}
