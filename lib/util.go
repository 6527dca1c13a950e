package lib

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
)

// MarshalJSON() serializes a message into a JSON byte slice
func MarshalJSON(message any) ([]byte, ErrorI) {
	bz, err := json.Marshal(message)
	if err != nil {
		return nil, ErrJSONMarshal(err)
	}
	return bz, nil
}

// MarshalJSONIndent() serializes a message into an indented JSON byte slice
func MarshalJSONIndent(message any) ([]byte, ErrorI) {
	bz, err := json.MarshalIndent(message, "", "  ")
	if err != nil {
		return nil, ErrJSONMarshal(err)
	}
	return bz, nil
}

// MarshalJSONIndentString() serializes a message into an indented JSON string
func MarshalJSONIndentString(message any) (string, ErrorI) {
	bz, err := MarshalJSONIndent(message)
	return string(bz), err
}

// UnmarshalJSON() deserializes a JSON byte slice into the specified object
func UnmarshalJSON(bz []byte, ptr any) ErrorI {
	if err := json.Unmarshal(bz, ptr); err != nil {
		return ErrJSONUnmarshal(err)
	}
	return nil
}

// NewJSONFromFile() reads a json object from file
func NewJSONFromFile(o any, dataDirPath, filePath string) ErrorI {
	bz, err := os.ReadFile(filepath.Join(dataDirPath, filePath))
	if err != nil {
		return ErrReadFile(err)
	}
	return UnmarshalJSON(bz, o)
}

// SaveJSONToFile() saves a json object to a file
func SaveJSONToFile(j any, dataDirPath, filePath string) (err ErrorI) {
	bz, err := MarshalJSONIndent(j)
	if err != nil {
		return
	}
	if e := os.WriteFile(filepath.Join(dataDirPath, filePath), bz, os.ModePerm); e != nil {
		return ErrWriteFile(e)
	}
	return
}

// BytesToString() converts a byte slice to a hexadecimal string
func BytesToString(b []byte) string {
	return hex.EncodeToString(b)
}

// StringToBytes() converts a hexadecimal string back into a byte slice
func StringToBytes(s string) ([]byte, ErrorI) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrStringToBytes(err)
	}
	return b, nil
}

// BytesToTruncatedString() converts a byte slice to a truncated hexadecimal string for logging
func BytesToTruncatedString(b []byte) string {
	if len(b) > 10 {
		return hex.EncodeToString(b[:10])
	}
	return hex.EncodeToString(b)
}

// HexBytes represents a byte slice that can be marshaled and unmarshalled as hex strings
type HexBytes []byte

// NewHexBytesFromString() converts a hexadecimal string into HexBytes
func NewHexBytesFromString(s string) (HexBytes, ErrorI) {
	bz, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrStringToBytes(err)
	}
	return bz, nil
}

// String() returns the HexBytes as a hexadecimal string
func (x HexBytes) String() string { return BytesToString(x) }

// MarshalJSON() serializes the HexBytes to a JSON byte slice
func (x HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(BytesToString(x))
}

// UnmarshalJSON() deserializes a JSON byte slice into HexBytes
func (x *HexBytes) UnmarshalJSON(b []byte) (err error) {
	var s string
	if err = json.Unmarshal(b, &s); err != nil {
		return err
	}
	*x, err = StringToBytes(s)
	return
}

// JoinLenPrefix() appends the items together separated by a single byte to represent the length of the segment
func JoinLenPrefix(toAppend ...[]byte) (res []byte) {
	// for each item to append
	for _, item := range toAppend {
		if item == nil {
			continue
		}
		// store the length of the segment in a single byte
		length := []byte{byte(len(item))}
		// append to the rest of the segment
		res = append(append(res, length...), item...)
	}
	return
}

// DecodeLengthPrefixed() decodes a key that is delimited by the length of the segment in a single byte
func DecodeLengthPrefixed(key []byte) (segments [][]byte) {
	for i := 0; i < len(key); {
		// read the length prefix
		length := int(key[i])
		i++
		// a truncated segment means the key is corrupt
		if i+length > len(key) {
			return nil
		}
		segments = append(segments, key[i:i+length])
		i += length
	}
	return
}

// Uint64ToBytes() encodes an integer big endian so byte order matches numeric order
func Uint64ToBytes(u uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, u)
	return b
}

// SortedKeys() returns the keys of a string keyed map in ascending order
func SortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CatchPanic() catches any panic in the function call or child function calls
func CatchPanic(l LoggerI) {
	if r := recover(); r != nil {
		l.Errorf("recovered from panic: %v\n%s", r, string(debug.Stack()))
	}
}
