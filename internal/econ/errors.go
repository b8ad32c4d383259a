package econ

import "github.com/nodalync/engine/internal/errs"

var (
	errEmptyEntries     = errs.New(errs.Internal, "settlement batch has no entries")
	errIndexOutOfBounds = errs.New(errs.Internal, "entry index out of bounds")
)
