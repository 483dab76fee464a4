package comment

import (
	"github.com/skystar-p/zoog/opus"
)

// ActionKind tags which case a CommentRewriterAction carries.
type ActionKind int

const (
	// ActionNoChange leaves the comment header untouched.
	ActionNoChange ActionKind = iota
	// ActionModify applies Retain in place, then appends Append.
	ActionModify
	// ActionReplace clears the header, then appends every entry from
	// Append in order.
	ActionReplace
)

// CommentRewriterAction is the small closed union the CLI's list/append/
// write modes each construct one instance of, taking the place of a boxed
// retain closure: Retain is supplied directly as a func value (Go closures
// are cheap enough that the "boxed predicate" design note doesn't need a
// tagged-union workaround there), while the pattern parsing that feeds it
// is the closed union in pattern.go.
type CommentRewriterAction struct {
	Kind   ActionKind
	Retain func(key, value string) bool
	Append []opus.CommentEntry
}

// NoChange builds the no-op action (used by list mode, which only reads).
func NoChange() CommentRewriterAction {
	return CommentRewriterAction{Kind: ActionNoChange}
}

// Replace builds the write-mode action: clear then push every entry.
func Replace(entries []opus.CommentEntry) CommentRewriterAction {
	return CommentRewriterAction{Kind: ActionReplace, Append: entries}
}

// Modify builds the append-mode action: apply retain in place (CLI delete
// patterns), then push every entry in append.
func Modify(retain func(key, value string) bool, entries []opus.CommentEntry) CommentRewriterAction {
	return CommentRewriterAction{Kind: ActionModify, Retain: retain, Append: entries}
}

// Rewrite implements rewriter.HeaderRewrite[*opus.DiscreteCommentList] by
// structural typing: its Summarize/Rewrite signatures match the interface
// without importing package rewriter.
type Rewrite struct {
	Action CommentRewriterAction
}

// Summarize returns a standalone snapshot of the comment list, used by the
// list-mode CLI output path.
func (r *Rewrite) Summarize(id *opus.Header, comment *opus.CommentHeader) *opus.DiscreteCommentList {
	return comment.List.Clone()
}

// Rewrite applies the configured action to comment's list.
func (r *Rewrite) Rewrite(id *opus.Header, comment *opus.CommentHeader) error {
	switch r.Action.Kind {
	case ActionNoChange:
		return nil
	case ActionReplace:
		comment.List.Clear()
		return comment.List.Extend(r.Action.Append)
	case ActionModify:
		comment.List.Retain(r.Action.Retain)
		return comment.List.Extend(r.Action.Append)
	default:
		return nil
	}
}
