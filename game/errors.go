package game

import "errors"

// Kind は操作が拒否された理由の分類です。ハンドラ側でHTTPステータスに変換されます。
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindInvalidArgument
	KindForbidden
	KindInternal // 内部不変条件の違反。通常のユーザーエラーとは区別する
)

// Error は理由の分類と人間可読なメッセージを持つエラーです。
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func errNotFound(reason string) error        { return &Error{Kind: KindNotFound, Reason: reason} }
func errConflict(reason string) error        { return &Error{Kind: KindConflict, Reason: reason} }
func errInvalidArgument(reason string) error { return &Error{Kind: KindInvalidArgument, Reason: reason} }
func errForbidden(reason string) error       { return &Error{Kind: KindForbidden, Reason: reason} }
func errInternal(reason string) error        { return &Error{Kind: KindInternal, Reason: reason} }

// KindOf はエラーの分類を返します。game.Error以外はKindUnknownです。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
