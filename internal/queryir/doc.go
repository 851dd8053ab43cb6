// Package queryir provides the predicate intermediate representation the
// adjudication engine uses to select and update records.
//
// The engine never builds SQL text. It states which rows it means with a
// Predicate tree and hands that to the record store, which compiles it
// (see internal/querysql). This keeps the engine portable across storage
// backends and makes value interpolation impossible.
//
//	[engine phase] → [queryir.Predicate] → [querysql] → parameterised SQL
//
// SEALED INTERFACES:
//
// Predicate is sealed with a marker method. Only types in this package
// implement it, so backends can switch exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case In:
//	case Between:
//	case IsNull:
//	case And:
//	case Or:
//	case Not:
//	}
//
// FIELDS:
//
// Field names are a closed set (see Field constants). Validate rejects
// anything else, so a predicate can never smuggle column expressions.
package queryir
