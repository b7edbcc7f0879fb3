package blockchain

// Receipt is the outcome of running the verification predicates over a
// candidate block. Verified is true exactly when Errors is empty.
//
// Errors is kept in reverse detection order: the earliest-detected
// error sits last. Callers surface Errors[0], which is therefore the
// last error appended. Downstream consumers depend on this ordering, so
// it is part of the receipt's contract.
type Receipt struct {
	Verified bool
	Errors   []string
}

func (r *Receipt) appendError(err string) {
	r.Errors = append(r.Errors, err)
}

// finalize derives Verified and flips Errors into their contractual
// reverse order. Must be called exactly once, after the last predicate.
func (r *Receipt) finalize() {
	r.Verified = len(r.Errors) == 0
	for i, j := 0, len(r.Errors)-1; i < j; i, j = i+1, j-1 {
		r.Errors[i], r.Errors[j] = r.Errors[j], r.Errors[i]
	}
}
