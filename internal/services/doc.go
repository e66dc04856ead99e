// Package services defines the shared error taxonomy for pipeline components.
//
// Sentinel markers distinguish failures that abort startup (configuration,
// missing collaborators) from the transient and recoverable kinds that are
// absorbed into typed outcomes: a failed provider becomes a zero-confidence
// result, a failed delivery becomes a queue entry, a failed device read is
// retried. Wrap attaches component and operation context while preserving
// errors.Is classification.
package services
