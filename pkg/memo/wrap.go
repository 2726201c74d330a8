package memo

import (
	"context"
	"fmt"
)

// Memoize0 wraps an operation without arguments.
func Memoize0[R any](c *Cache, description string, fn func(context.Context) (R, error)) func(context.Context) (R, error) {
	return func(ctx context.Context) (R, error) {
		value, err := c.Do(ctx, description, nil, func(ctx context.Context) (any, error) {
			return fn(ctx)
		})
		return typed[R](description, value, err)
	}
}

// Memoize1 wraps an operation of one argument. The argument is part of the key
// and must be JSON serializable.
func Memoize1[A, R any](c *Cache, description string, fn func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	return func(ctx context.Context, a A) (R, error) {
		value, err := c.Do(ctx, description, []any{a}, func(ctx context.Context) (any, error) {
			return fn(ctx, a)
		})
		return typed[R](description, value, err)
	}
}

// Memoize2 wraps an operation of two arguments.
func Memoize2[A, B, R any](c *Cache, description string, fn func(context.Context, A, B) (R, error)) func(context.Context, A, B) (R, error) {
	return func(ctx context.Context, a A, b B) (R, error) {
		value, err := c.Do(ctx, description, []any{a, b}, func(ctx context.Context) (any, error) {
			return fn(ctx, a, b)
		})
		return typed[R](description, value, err)
	}
}

func typed[R any](description string, value any, err error) (R, error) {
	var zero R
	if err != nil {
		return zero, err
	}
	if value == nil {
		return zero, nil
	}
	r, ok := value.(R)
	if !ok {
		return zero, fmt.Errorf("memo: %q produced %T, want %T", description, value, zero)
	}
	return r, nil
}
