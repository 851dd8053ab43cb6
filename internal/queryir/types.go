package queryir

// Predicate is a filter condition over one record.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Field names a filterable column.
type Field string

// QSO columns.
const (
	FieldID          Field = "id"
	FieldLogID       Field = "logid"
	FieldBand        Field = "band"
	FieldMode        Field = "mode"
	FieldTime        Field = "time"
	FieldMatchID     Field = "matchid"
	FieldMatchType   Field = "matchtype"
	FieldComment     Field = "comment"
	FieldSentCallID  Field = "sent_callid"
	FieldSentSerial  Field = "sent_serial"
	FieldSentMultID  Field = "sent_multid"
	FieldRecvdCallID Field = "recvd_callid"
	FieldRecvdCall   Field = "recvd_callsign"
	FieldRecvdSerial Field = "recvd_serial"
	FieldRecvdLoc    Field = "recvd_location"
	FieldRecvdMultID Field = "recvd_multid"
	FieldRecvdEntity Field = "recvd_entityid"
)

// knownFields is the whitelist Validate checks against.
var knownFields = map[Field]bool{
	FieldID: true, FieldLogID: true, FieldBand: true, FieldMode: true,
	FieldTime: true, FieldMatchID: true, FieldMatchType: true, FieldComment: true,
	FieldSentCallID: true, FieldSentSerial: true, FieldSentMultID: true,
	FieldRecvdCallID: true, FieldRecvdCall: true, FieldRecvdSerial: true,
	FieldRecvdLoc: true, FieldRecvdMultID: true, FieldRecvdEntity: true,
}

// Known reports whether f is a filterable column.
func Known(f Field) bool {
	return knownFields[f]
}

// Equals is `field = value`. NULL never equals anything; use IsNull.
type Equals struct {
	Field Field
	Value any // string, int, int64 or bool
}

func (Equals) predicateNode() {}

// In is `field IN (values...)`. An empty list matches nothing.
type In struct {
	Field  Field
	Values []any
}

func (In) predicateNode() {}

// Between is `field BETWEEN low AND high`, inclusive on both ends.
type Between struct {
	Field Field
	Low   int64
	High  int64
}

func (Between) predicateNode() {}

// IsNull is `field IS NULL`.
type IsNull struct {
	Field Field
}

func (IsNull) predicateNode() {}

// And is a conjunction. Empty means always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction. Empty means always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// AllOf is shorthand for And{Predicates: preds}.
func AllOf(preds ...Predicate) And {
	return And{Predicates: preds}
}

// AnyOf is shorthand for Or{Predicates: preds}.
func AnyOf(preds ...Predicate) Or {
	return Or{Predicates: preds}
}

// Int64s converts ids to an In value list.
func Int64s(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// StringValues converts strings to an In value list.
func StringValues(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
