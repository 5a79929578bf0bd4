// Package config carries the scan and review policy as one explicit
// value. Nothing in here is process-global: every component receives
// the Config it was constructed with, so two runs (or two tests) with
// different policies never interfere.
package config

import "dupescan/internal/dfs"

// ReportFileName is the fixed report written into the scan root before
// review begins.
const ReportFileName = "duplicates_report.txt"

// QuarantineDirName is the directory created under the scan root that
// receives moved duplicates, mirroring their original relative paths.
const QuarantineDirName = "_duplicates"

type Config struct {
	// Directory names skipped at any depth.
	ExcludedDirs map[string]bool
	// Exact file names skipped anywhere in the tree.
	ExcludedFiles map[string]bool
	// Lower-case extensions (with dot) that get a perceptual hash.
	ImageExts map[string]bool

	// ContentHash/PerceptualHash select which fingerprints the hasher
	// computes. Both off means records never join any group.
	ContentHash    bool
	PerceptualHash bool

	// Threshold is the maximum Hamming distance for two perceptual
	// fingerprints to be considered similar. Non-negative.
	Threshold int

	// DryRun reports dispositions without touching the filesystem.
	DryRun bool

	// SkipHidden controls whether dotfiles and dot-directories are skipped.
	SkipHidden bool
	// File size limits, zero means unlimited.
	MinFileSize uint64
	MaxFileSize uint64

	// HashAlgorithm selects which digest is used when hashing file contents.
	HashAlgorithm dfs.HashAlgorithm
}

// Default returns the policy the CLI starts from. The quarantine
// directory and the report file are excluded so a re-scan never ingests
// this tool's own outputs.
func Default() *Config {
	return &Config{
		ExcludedDirs: map[string]bool{
			".git":            true,
			"node_modules":    true,
			"__pycache__":     true,
			".venv":           true,
			"venv":            true,
			QuarantineDirName: true,
		},
		ExcludedFiles: map[string]bool{
			ReportFileName: true,
			".gitignore":   true,
			".DS_Store":    true,
			"Thumbs.db":    true,
		},
		ImageExts: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".gif":  true,
			".bmp":  true,
			".webp": true,
		},
		ContentHash:    true,
		PerceptualHash: true,
		Threshold:      5,
		SkipHidden:     true,
		HashAlgorithm:  dfs.HashSHA256,
	}
}
