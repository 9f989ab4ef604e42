// Package polllifecycle implements the poll lifecycle engine inside the
// voting context.
//
// The module owns poll read projections, the poll mutability state machine
// (full edits only before start with zero votes, end-date extension
// afterwards), and ballot submission with its quota and duplicate-vote
// rules. Business rules live in application/domain layers; infrastructure
// stays behind ports and adapters.
package polllifecycle
