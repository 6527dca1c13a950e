package store

import (
	"fmt"

	"github.com/canopy-network/mnvalidator/lib"
)

func ErrOpenDB(err error) lib.ErrorI {
	return lib.NewError(lib.CodeOpenDB, lib.StoreModule, fmt.Sprintf("openDB() failed with err: %s", err.Error()))
}

func ErrCloseDB(err error) lib.ErrorI {
	return lib.NewError(lib.CodeCloseDB, lib.StoreModule, fmt.Sprintf("closeDB() failed with err: %s", err.Error()))
}

func ErrCommitDB(err error) lib.ErrorI {
	return lib.NewError(lib.CodeCommitDB, lib.StoreModule, fmt.Sprintf("commitDB() failed with err: %s", err.Error()))
}

func ErrStoreGet(err error) lib.ErrorI {
	return lib.NewError(lib.CodeGetDB, lib.StoreModule, fmt.Sprintf("store.get() failed with err: %s", err.Error()))
}

func ErrStoreSet(err error) lib.ErrorI {
	return lib.NewError(lib.CodeSetDB, lib.StoreModule, fmt.Sprintf("store.set() failed with err: %s", err.Error()))
}

func ErrStoreDelete(err error) lib.ErrorI {
	return lib.NewError(lib.CodeDeleteDB, lib.StoreModule, fmt.Sprintf("store.delete() failed with err: %s", err.Error()))
}

func ErrStoreIterator(err error) lib.ErrorI {
	return lib.NewError(lib.CodeIteratorDB, lib.StoreModule, fmt.Sprintf("store.iterator() failed with err: %s", err.Error()))
}

func ErrNilKey() lib.ErrorI {
	return lib.NewError(lib.CodeNilKey, lib.StoreModule, "key may not be nil or empty")
}

func ErrUnknownBackend(backend string) lib.ErrorI {
	return lib.NewError(lib.CodeUnknownDB, lib.StoreModule, fmt.Sprintf("unknown store backend %q", backend))
}
