// Package dataprocessing turns the raw population and economic sources into
// the merged regional dataset.
//
// # Architecture
//
// The package is organized into four steps that run left to right:
//
// 1. Population loader: reads the delimited population file
// 2. Normalizer: decodes the position-encoded economic file through an
//    explicit EconomicSchema that is validated before extraction
// 3. Merger: left-joins economic records onto population rows, forward
//    fills economic fields per region and builds the national aggregate
// 4. Converter: adds a USD GDP column from a yearly rate table
//
// # Error isolation
//
// A malformed cell only affects its own (region, year) pair. Skipped pairs
// are counted in NormalizeStats and never abort the run. A missing
// population file is a SourceUnavailable error and is fatal.
//
// # Usage
//
//	loader := dataprocessing.NewPopulationLoader(cfg.Dataset.PopulationColumns, logger)
//	pop, _, err := loader.Load(ctx, paths.PopulationFile)
//
//	norm := dataprocessing.NewNormalizer(cfg.Dataset, cfg.Sectors, logger)
//	econ, stats, err := norm.Load(ctx, paths.EconomicFile)
//
//	merged, _ := dataprocessing.NewMerger(cfg.Sectors, logger).Merge(pop, econ)
package dataprocessing
