package controller

import (
	"fmt"

	"github.com/canopy-network/mnvalidator/lib"
)

func ErrAliasNotFound(alias string) lib.ErrorI {
	return lib.NewError(lib.CodeAliasNotFound, lib.ControllerModule, fmt.Sprintf("CreateValidatorReg failed: unknown masternode alias %q", alias))
}

func ErrDuplicateAlias(alias string) lib.ErrorI {
	return lib.NewError(lib.CodeDuplicateAlias, lib.ControllerModule, fmt.Sprintf("masternode alias %q already exists", alias))
}

func ErrNoMasternodeKey(err error) lib.ErrorI {
	return lib.NewError(lib.CodeNoMasternodeKey, lib.ControllerModule, fmt.Sprintf("unable to unlock masternode key: %s", err.Error()))
}

func ErrInvalidBlock(reason string) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidBlock, lib.ControllerModule, fmt.Sprintf("invalid block: %s", reason))
}

func ErrBlockNotFound(height uint64) lib.ErrorI {
	return lib.NewError(lib.CodeNoBlocks, lib.ControllerModule, fmt.Sprintf("no block at height %d", height))
}

func ErrReorgDepth(depth, height uint64) lib.ErrorI {
	return lib.NewError(lib.CodeReorgDepth, lib.ControllerModule, fmt.Sprintf("reorg depth %d exceeds tip height %d", depth, height))
}

func ErrRestoreFailed(cause, restore lib.ErrorI) lib.ErrorI {
	return lib.NewError(lib.CodeRestoreFailed, lib.ControllerModule, fmt.Sprintf("reorg failed with err: %s; restoring the original branch failed with err: %s", cause.Error(), restore.Error()))
}
