package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/glimpse/internal/dagger"
)

// Build returns a directory holding the glimpse binary for the container's
// platform. CGO rules out the cross-compile matrix.
func (g *Glimpse) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	return g.goContainer().
		WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", "/out/", "./cli/glimpse"}).
		Directory("/out")
}

// BuildRelease compiles a versioned release binary with embedded version info
func (g *Glimpse) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now().UTC().Format(time.RFC3339)

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/glimpse/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/glimpse/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/glimpse/pkg/utils.Buildtime=%s'", buildtime),
	}

	return g.Build(ctx, strings.Join(ldflags, " "))
}
