package room

// OpError is a validation failure from a room operation: its string value
// IS the localisation key the session handler sends back verbatim as a
// Failed(reason) response (§7). It never carries dynamic data — every
// reason is a fixed key enumerated in reasons.go.
type OpError string

func (e OpError) Error() string { return string(e) }
