// Package vars stores per-population and per-subpopulation variables, the
// named values that analysis steps attach to a population (allele
// frequencies, summaries, counters) outside its fixed-width buffers.
//
// Variables are keyed by (population id, subpopulation scope, name), where
// scope PopScope addresses the whole population. Two backends implement
// the Store interface: an in-process map for throwaway runs and a SQLite
// file for results that must survive the process. Values are encoded as
// JSON on the way into the SQLite backend, so anything JSON-representable
// can be stored; numbers come back as float64.
package vars
