package fault

// Result は表示層へ返す操作結果です。成功時は Data、失敗時は Kind と Message を持ちます。
type Result[T any] struct {
	Success bool
	Kind    Kind
	Message string
	Data    T
}

// From は値とエラーから Result を組み立てます。
func From[T any](v T, err error) Result[T] {
	if err != nil {
		var zero T
		return Result[T]{Kind: KindOf(err), Message: err.Error(), Data: zero}
	}
	return Result[T]{Success: true, Data: v}
}
