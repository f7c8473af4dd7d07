package pdf

import "fmt"

// Error はクライアントへ返すコード付きのエラーです。
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// AssetError はロゴ画像の保存・埋め込みに失敗したことを表します。
// 出力処理は継続し、LogoOutcome に理由が記録されます。
type AssetError struct {
	Op  string
	Err error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("asset %s failed: %v", e.Op, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}
