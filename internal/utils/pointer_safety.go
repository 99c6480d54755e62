package utils

func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}

// OptionalString returns nil for an empty string so optional columns stay unset
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Clone returns a pointer to a copy of *v, or nil
func Clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
