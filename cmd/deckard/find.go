package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/duplocate/deckard/internal/config"
	"github.com/duplocate/deckard/internal/engine"
	"github.com/duplocate/deckard/internal/progress"
	"github.com/spf13/cobra"
)

// findOptions holds CLI flags for the find command.
type findOptions struct {
	skipEmpty     bool
	skipHidden    bool
	workers       int
	minSizeStr    string
	includeFilter string
	excludeFilter string
	noProgress    bool
	verbose       bool

	fullHash     bool
	hashAlg      string
	hashSizeStr  string
	hashSplits   uint64

	compareImages   bool
	imageAlg        string
	imageFilter     string
	imageSize       uint64
	imageThreshold  uint64

	compareAudio        bool
	audioThreshold      float64
	audioSegmentsLimit  uint64
}

// newFindCmd creates the find subcommand.
func newFindCmd() *cobra.Command {
	opts := &findOptions{
		workers:            runtime.NumCPU(),
		minSizeStr:         "0",
		hashAlg:            "sha1",
		hashSizeStr:        "1024",
		hashSplits:         8,
		imageAlg:           "mean",
		imageFilter:        "nearest",
		imageSize:          16,
		imageThreshold:     40,
		audioThreshold:     10,
		audioSegmentsLimit: 4,
	}

	cmd := &cobra.Command{
		Use:   "find [paths...]",
		Short: "Scan paths and report duplicate files",
		Long: `Scans the given paths for duplicate files and prints each group found.

Duplicates are detected by content hash by default. Pass --compare-images
or --compare-audio to additionally match files whose decoded content is
perceptually or acoustically similar, even when their bytes differ.

This command never modifies or deletes anything on disk; it only reports.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runFind(args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.skipEmpty, "skip-empty", false, "Skip zero-byte files")
	cmd.Flags().BoolVar(&opts.skipHidden, "skip-hidden", false, "Skip dotfiles and dot-directories")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", opts.workers, "Number of parallel workers")
	cmd.Flags().StringVar(&opts.minSizeStr, "min-size", opts.minSizeStr, "Skip files smaller than this size (e.g. 1024, 1K); raised to at least 1 byte under --skip-empty")
	cmd.Flags().StringVar(&opts.includeFilter, "include", "", "Only consider files whose base name contains this text (case-insensitive)")
	cmd.Flags().StringVar(&opts.excludeFilter, "exclude", "", "Skip files whose base name contains this text (case-insensitive)")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable progress output")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Show ID3v1 audio tags for files in duplicate groups; MIME types, and so tags, are only detected with --compare-images or --compare-audio")

	cmd.Flags().BoolVar(&opts.fullHash, "full-hash", false, "Hash entire file contents instead of sampling")
	cmd.Flags().StringVar(&opts.hashAlg, "hash-algorithm", opts.hashAlg, "Content hash algorithm: md5, sha1, sha256, sha512")
	cmd.Flags().StringVar(&opts.hashSizeStr, "hash-size", opts.hashSizeStr, "Quick-hash window size per split (e.g. 1024, 1K)")
	cmd.Flags().Uint64Var(&opts.hashSplits, "hash-splits", opts.hashSplits, "Number of quick-hash sample windows")

	cmd.Flags().BoolVar(&opts.compareImages, "compare-images", false, "Additionally match images by perceptual similarity")
	cmd.Flags().StringVar(&opts.imageAlg, "image-algorithm", opts.imageAlg, "Image hash algorithm: mean, median, gradient, vert_gradient, double_gradient, blockhash")
	cmd.Flags().StringVar(&opts.imageFilter, "image-filter", opts.imageFilter, "Resize filter: nearest, triangle, catmull_rom, gaussian, lanczos3")
	cmd.Flags().Uint64Var(&opts.imageSize, "image-hash-size", opts.imageSize, "Image hash grid size")
	cmd.Flags().Uint64Var(&opts.imageThreshold, "image-threshold", opts.imageThreshold, "Maximum Hamming distance considered a match")

	cmd.Flags().BoolVar(&opts.compareAudio, "compare-audio", false, "Additionally match audio by acoustic fingerprint")
	cmd.Flags().Float64Var(&opts.audioThreshold, "audio-threshold", opts.audioThreshold, "Maximum average segment score considered a match")
	cmd.Flags().Uint64Var(&opts.audioSegmentsLimit, "audio-segments-limit", opts.audioSegmentsLimit, "Maximum aligned segments a match may span")

	return cmd
}

func (o *findOptions) toSearchConfig() (config.SearchConfig, error) {
	hashSize, err := parseSize(o.hashSizeStr)
	if err != nil {
		return config.SearchConfig{}, fmt.Errorf("invalid --hash-size: %w", err)
	}
	minSize, err := parseSize(o.minSizeStr)
	if err != nil {
		return config.SearchConfig{}, fmt.Errorf("invalid --min-size: %w", err)
	}

	return config.SearchConfig{
		SkipEmpty:     o.skipEmpty,
		SkipHidden:    o.skipHidden,
		Workers:       o.workers,
		MinSize:       int64(minSize),
		IncludeFilter: o.includeFilter,
		ExcludeFilter: o.excludeFilter,
		Hasher: config.HasherConfig{
			FullHash:  o.fullHash,
			Algorithm: config.HashAlgorithm(o.hashAlg),
			Size:      hashSize,
			Splits:    o.hashSplits,
		},
		Image: config.ImageConfig{
			Compare:   o.compareImages,
			Algorithm: config.ImageHashAlgorithm(o.imageAlg),
			Filter:    config.ImageFilterAlgorithm(o.imageFilter),
			Size:      o.imageSize,
			Threshold: o.imageThreshold,
		},
		Audio: config.AudioConfig{
			Compare:       o.compareAudio,
			Threshold:     o.audioThreshold,
			SegmentsLimit: o.audioSegmentsLimit,
		},
	}, nil
}

// drainErrors consumes errors from a channel and writes them to stderr.
func drainErrors(errs <-chan error) {
	for err := range errs {
		fmt.Fprintf(os.Stderr, "\r\033[Kerror: %v\n", err)
	}
}

// runFind executes the search pipeline: walk -> process -> match, then
// prints every duplicate group found.
func runFind(paths []string, opts *findOptions) error {
	cfg, err := opts.toSearchConfig()
	if err != nil {
		return err
	}

	e, err := engine.New(paths, cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 100)
	e.ErrCh = errCh
	go drainErrors(errCh)
	defer close(errCh)

	showProgress := !opts.noProgress
	ctx := context.Background()

	walkBar := progress.New(showProgress, -1)
	if err := e.Walk(ctx, func(count int) {
		walkBar.Describe(countStringer(count))
	}); err != nil {
		return err
	}
	walkBar.Finish(countStringer(e.FilesLen()))

	if e.FilesLen() == 0 {
		fmt.Println("no files found")
		return nil
	}

	processBar := progress.New(showProgress, int64(e.FilesLen()))
	if err := e.Process(ctx, func(done, total int) {
		processBar.Set(uint64(done))
	}); err != nil {
		return err
	}
	processBar.Finish(countStringer(e.FilesLen()))

	matchBar := progress.New(showProgress, -1)
	if err := e.MatchDuplicates(ctx, func(done, total int) {
		matchBar.Describe(countStringer(done))
	}); err != nil {
		return err
	}
	matchBar.Finish(countStringer(e.DuplicatesLen()))

	printDuplicateGroups(e, opts.verbose)
	return nil
}

type countStringer int

func (c countStringer) String() string { return fmt.Sprintf("%d", int(c)) }

// printDuplicateGroups prints each connected duplicate group exactly once,
// by only starting a group at its lexicographically smallest member.
func printDuplicateGroups(e *engine.Engine, verbose bool) {
	printed := make(map[string]bool)

	visit := func(start string) []string {
		group := map[string]struct{}{start: {}}
		queue := []string{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			dups, _ := e.Duplicates(cur)
			for _, d := range dups {
				if _, seen := group[d]; !seen {
					group[d] = struct{}{}
					queue = append(queue, d)
				}
			}
		}
		paths := make([]string, 0, len(group))
		for p := range group {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		return paths
	}

	allDuplicatePaths := e.DuplicatePaths()
	sort.Strings(allDuplicatePaths)

	for _, path := range allDuplicatePaths {
		if printed[path] {
			continue
		}
		group := visit(path)
		for _, p := range group {
			printed[p] = true
		}
		if group[0] != path {
			continue // not the group's canonical starting member
		}

		common := engine.FindCommonPath(group)
		fmt.Printf("Duplicate group (%d files) under %s:\n", len(group), common)
		for _, p := range group {
			entry, _ := e.File(p)
			fmt.Printf("  %s (%s)\n", p, engine.FormattedSize(entry.Size))
			if verbose {
				_ = entry.ReadAudioTags()
				if entry.AudioTags != nil {
					fmt.Printf("    tags: %+v\n", *entry.AudioTags)
				}
			}
		}
	}
}
