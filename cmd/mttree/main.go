// Package main provides the mttree CLI for flattening, unflattening and
// logging multi-type trees.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mesh-intelligence/multitype/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// userErrors are failures caused by the input rather than the environment.
var userErrors = []error{
	types.ErrInvalidIndex,
	types.ErrInconsistentTopology,
	types.ErrMalformedFlatTree,
	types.ErrTypeOutOfRange,
	types.ErrChangeOrder,
	types.ErrTypeLabelEmpty,
	types.ErrTypeCountMissing,
	types.ErrTypeCountInvalid,
	types.ErrRunNotFound,
	types.ErrSampleNotFound,
	types.ErrDuplicateSample,
	errUsage,
}

var errUsage = errors.New("usage")

func exitCode(err error) int {
	for _, u := range userErrors {
		if errors.Is(err, u) {
			return exitUserError
		}
	}
	return exitSysError
}
