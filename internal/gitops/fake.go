package gitops

import "context"

// Fake is an in-memory GitOps double for tests (spec §6.6: "tests provide
// an in-memory double").
type Fake struct {
	Head          string
	Dirty         []string
	InsideTree    bool
	StatusErr     error
	StatusOutput  string
}

func (f *Fake) CurrentHead(ctx context.Context) (string, error) { return f.Head, nil }

func (f *Fake) DirtyMarkdownPaths(ctx context.Context) ([]string, error) { return f.Dirty, nil }

func (f *Fake) IsInsideWorkTree(ctx context.Context) bool { return f.InsideTree }

func (f *Fake) Status(ctx context.Context) (string, error) {
	if f.StatusErr != nil {
		return "", f.StatusErr
	}
	return f.StatusOutput, nil
}
