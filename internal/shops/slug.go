package shops

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/gosimple/slug"
)

const (
	fallbackSlug     = "shop"
	maxSlugBaseLen   = 60
	defaultSlugTries = 50
)

var (
	nonSlugRun       = regexp.MustCompile(`[^a-z0-9]+`)
	apostrophes      = map[string]string{"'": "", "’": "", "`": ""}
	ErrSlugExhausted = pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique shop link, try a different business name")
)

// NormalizeSlug lowercases name, drops apostrophes and collapses every run
// of other characters into one hyphen. Names with no ASCII letters or
// digits become "shop".
func NormalizeSlug(name string) string {
	s := strings.ToLower(slug.Substitute(name, apostrophes))
	s = strings.Trim(nonSlugRun.ReplaceAllString(s, "-"), "-")
	if len(s) > maxSlugBaseLen {
		s = strings.TrimRight(s[:maxSlugBaseLen], "-")
	}
	if s == "" {
		return fallbackSlug
	}
	return s
}

func slugCandidate(base string, counter int) string {
	if counter <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, counter)
}

type slugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// Allocator finds the first unused slug for a base. The check is not
// linearizable; callers still rely on the unique index at insert time.
type Allocator struct {
	repo        slugChecker
	maxAttempts int
}

func NewAllocator(repo slugChecker, maxAttempts int) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = defaultSlugTries
	}
	return &Allocator{repo: repo, maxAttempts: maxAttempts}
}

// Allocate probes base, base-2, base-3, ... beginning at counter start and
// returns the free slug together with the counter that produced it, so a
// caller that loses an insert race can resume at counter+1.
func (a *Allocator) Allocate(ctx context.Context, base string, start int) (string, int, error) {
	if start < 1 {
		start = 1
	}
	for counter := start; counter <= a.maxAttempts; counter++ {
		candidate := slugCandidate(base, counter)
		taken, err := a.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug availability")
		}
		if !taken {
			return candidate, counter, nil
		}
	}
	return "", 0, pkgerrors.Wrap(pkgerrors.CodeConflict, ErrSlugExhausted, ErrSlugExhausted.Message()).
		WithDetails(map[string]any{"slug": base, "attempts": a.maxAttempts})
}
