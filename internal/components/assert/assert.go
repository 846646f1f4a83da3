package assert

import "fmt"

// NotNil panics if value is nil, name identifies the value in the panic message.
func NotNil(value any, name string) {
	if value == nil {
		panic(fmt.Sprintf("%s: expected value to be not nil", name))
	}
}

// NotNilPtr panics if ptr is nil. NotNil cannot catch a nil pointer stored in an
// interface.
func NotNilPtr[T any](ptr *T, name string) {
	if ptr == nil {
		panic(fmt.Sprintf("%s: expected pointer to be not nil", name))
	}
}

// NotEmptyStr panics if str is empty, name identifies the value in the panic message.
func NotEmptyStr(str string, name string) {
	if str == "" {
		panic(fmt.Sprintf("%s: expected string to be non-empty", name))
	}
}
