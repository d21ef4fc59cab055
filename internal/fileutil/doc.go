// Package fileutil walks a directory tree under ordered glob rules and turns
// the results into manifest keys.
//
// # Rules
//
// NewGlobber parses newline-separated pattern text. Each non-empty line is a
// doublestar glob relative to the base directory; a leading '!' makes it an
// exclusion. Later rules override earlier ones, and a rule that matches a
// directory also matches everything below it.
//
//	g, err := fileutil.NewGlobber("/srv/site", "**\n!**/*.map", fileutil.DefaultGlobOptions())
//	if err != nil {
//		return err
//	}
//	for p, err := range g.Glob() {
//		if err != nil {
//			return err
//		}
//		fmt.Println(p)
//	}
//
// Glob yields absolute paths lazily in walk order. Directories whose subtree
// can no longer be included are pruned without being read. Symlinked
// directories are followed only when GlobOptions.FollowSymbolicLinks is set,
// and a directory already on the current walk path is never entered twice.
//
// # Normalization
//
// Normalize maps a walk result to the POSIX path relative to the base
// directory used as the manifest key. The base itself, paths outside it and
// anything under .git are rejected.
package fileutil
