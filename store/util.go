package store

// prefixEnd() returns the smallest key that is larger than every key starting with prefix
// nil means there is no such key (the prefix is empty or all 0xFF)
func prefixEnd(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for len(end) > 0 {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			return end
		}
		end = end[:len(end)-1]
	}
	return nil
}

// cp() returns a copy of the bytes so callers never alias database owned memory
func cp(bz []byte) (ret []byte) {
	if bz == nil {
		return nil
	}
	ret = make([]byte, len(bz))
	copy(ret, bz)
	return ret
}
