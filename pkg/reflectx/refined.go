package reflectx

import "reflect"

// IsRefinedType reports whether value is exactly the type R.
func IsRefinedType[R any](value reflect.Type) bool {
	var toMatch R
	return reflect.TypeOf(toMatch) == value
}
