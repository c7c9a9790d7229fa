//go:build !linux

package sdunit

import "context"

func query(context.Context, string) (Status, error) { return Status{}, ErrUnsupported }
