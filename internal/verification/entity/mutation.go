package entity

// Mutation tells a session store what to do with a session after a
// compare-and-update callback has inspected it.
type Mutation int

const (
	// MutationKeep leaves the stored session untouched.
	MutationKeep Mutation = iota
	// MutationSave writes the callback's changes back.
	MutationSave
	// MutationDelete removes the session.
	MutationDelete
)

// Mutator inspects and may modify s in place. The store applies the returned
// Mutation atomically for the identifier and then returns the callback's error
// to the caller, so a failure outcome can still persist a change (for example
// an incremented attempt counter). A store may run a Mutator more than once
// when it loses an optimistic race; it must depend only on s.
type Mutator func(s *Session) (Mutation, error)
