// Package config loads STRIDE's base-directory configuration.
//
// Every stride command is expected to store logs and cached archive
// objects within a dedicated base directory. When loading the
// configuration, the first and only argument is the path to the base
// directory rather than the path to the configuration file itself. The
// designated directory is expected to contain a text file called
// 'config' in a simple "key value" line format; the derived paths (the
// run-log root and the archive cache directory) are computed from the
// base directory and exposed as methods of C.
package config
