// Package protosource loads message schemas into a protoresolve.Registry,
// either by compiling .proto sources or by reading a compiled protoset.
//
// The resulting registry can be given to protoplain.ForResolver to convert
// messages whose types are not linked into the program.
package protosource

import (
	"context"
	"fmt"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"

	"github.com/jhump/protoplain/protoresolve"
)

// Compile compiles the given .proto files, whose contents are provided in
// sources, keyed by path. Files under "google/protobuf/" that are part of
// the standard distribution are available to import without being included
// in sources.
//
// The returned registry contains the named files and everything they import.
func Compile(ctx context.Context, sources map[string]string, paths ...string) (*protoresolve.Registry, error) {
	return compile(ctx, &protocompile.SourceResolver{
		Accessor: protocompile.SourceAccessorFromMap(sources),
	}, paths...)
}

// CompileFiles is like Compile except that sources are read from disk. Each
// path is resolved relative to the given import paths. If no import paths
// are given, paths are resolved relative to the current working directory.
func CompileFiles(ctx context.Context, importPaths []string, paths ...string) (*protoresolve.Registry, error) {
	return compile(ctx, &protocompile.SourceResolver{
		ImportPaths: importPaths,
	}, paths...)
}

func compile(ctx context.Context, resolver protocompile.Resolver, paths ...string) (*protoresolve.Registry, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to compile")
	}
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(resolver),
	}
	files, err := compiler.Compile(ctx, paths...)
	if err != nil {
		return nil, err
	}
	return registryFor(files)
}

func registryFor(files linker.Files) (*protoresolve.Registry, error) {
	reg := &protoresolve.Registry{}
	for _, file := range files {
		if err := reg.RegisterFileRecursive(file); err != nil {
			return nil, fmt.Errorf("failed to register %q: %w", file.Path(), err)
		}
	}
	return reg, nil
}
