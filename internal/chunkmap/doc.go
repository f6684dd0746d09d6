// Package chunkmap models the build output handed over when bundling
// completes: an ordered mapping from chunk name to the asset files the chunk
// produced.
//
// Bundlers disagree on shape. Webpack stats may list a chunk's assets as a
// single string or an array; Vite and esbuild describe outputs per file. The
// decoders in this package normalize all of them to a Map whose values are
// always non-empty ordered lists, preserving the key order of the source
// document so identical input always yields identical output.
package chunkmap
