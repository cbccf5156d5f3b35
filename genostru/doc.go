// Package genostru maintains the process-wide registry of genotypic
// structures shared by populations.
//
// # Overview
//
// A Structure describes the genetic layout every individual of a population
// shares: the number of chromosome sets (ploidy), the loci on each
// chromosome and their genetic positions, allele and locus names, and the
// ordered list of per-individual information fields. Structures are
// immutable once interned; populations reference them through a one-byte
// Index, which keeps the per-individual overhead at a single byte even for
// simulations with millions of individuals.
//
// # Registry
//
// The registry is append-only and process-wide. Intern deduplicates by value
// equality, so two populations constructed with identical layout parameters
// share one entry. At most 256 distinct structures may exist; this is a
// deliberate memory-density decision (the Index must fit in a byte), not an
// incidental limit. Interning is serialized by a mutex; lookups are
// lock-free because entries are immutable after append.
//
// # Derivation
//
// A structure is never modified in place. Layout changes (adding or removing
// loci, chromosomes, or information fields) derive a brand-new Structure via
// the With* methods, which the caller interns to obtain a new Index. Other
// populations referencing the old entry are unaffected.
package genostru
