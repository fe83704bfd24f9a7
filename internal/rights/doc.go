// Package rights talks to the external rights-clearance authority and
// classifies cart assets into authorized and restricted sets.
//
// Client is the protocol adapter: it converts an intended-use declaration and
// a set of asset identifiers into a clearance request and the response into
// per-asset verdicts. PartitionAssets is the pure classification function.
// Checker ties the two together and enforces the at-most-once rule: a check
// cycle runs once per distinct (intended use, restricted set) pair, and a
// concurrent invocation while one is in flight is suppressed.
//
// Policy note: an asset absent from a non-204 clearance response is treated
// as authorized. The authority only reports assets it has an opinion about;
// absence is consent, not an omission.
package rights
