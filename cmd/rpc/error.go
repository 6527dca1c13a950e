package rpc

import (
	"fmt"

	"github.com/canopy-network/mnvalidator/lib"
)

func ErrInvalidParams(err error) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidParams, lib.RPCModule, fmt.Sprintf("invalid params: %s", err.Error()))
}

func ErrResourceUsage(err error) lib.ErrorI {
	return lib.NewError(lib.CodeResourceUsage, lib.RPCModule, fmt.Sprintf("resource usage failed with err: %s", err.Error()))
}
