// Package patch parses and applies patches written in a constrained subset of
// the unified-diff format.
//
// A patch names its target with "+++ <path>" lines and describes each edit
// region with a "@@ -oldStart,oldCount +newStart,newCount @@" header followed
// by body lines prefixed with ' ', '+' or '-'. Hunks are replayed one at a
// time against the current content of their target, each verifying that the
// file still holds the lines the hunk expects. Fuzzy matching, file creation
// and deletion, and binary patches are not supported.
//
// Failures are returned as *Error values tagged with a Code so callers can
// tolerate CodeAlreadyPatched while treating every other kind as fatal.
package patch
