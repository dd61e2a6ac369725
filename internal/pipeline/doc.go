// Package pipeline runs tree normalization over several roots.
//
// Each root gets a fresh normalizer from a factory, so no visited set is
// shared between roots. Roots run through errgroup with a concurrency limit;
// the default of one runs them strictly one after another.
package pipeline
