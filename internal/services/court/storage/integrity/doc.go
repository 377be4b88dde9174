// Package integrity signs the event journal's chain hashes so a replayed
// journal can be checked for tampering as well as corruption.
package integrity
