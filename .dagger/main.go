// Glimpse CI
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/glimpse/internal/dagger"
)

// Glimpse is the main module for the Glimpse CI pipeline
type Glimpse struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Glimpse CI module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", "build", "tmp", "_examples", ".glimpse"]
	source *dagger.Directory,
) *Glimpse {
	return &Glimpse{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// libsqlite3-dev, CGO enabled, and the project source mounted. sqlite-vec
// needs CGO.
func (g *Glimpse) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", g.Source)
}

// Test runs the glimpse unit tests via "go test"
func (g *Glimpse) Test(ctx context.Context) (string, error) {
	return g.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
