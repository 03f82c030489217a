package domain

// UserID identifies a directory record. Its format depends on the backend that
// assigned it: remote ids are database sequence values, local ids derive from
// the registration timestamp.
type UserID string
