package utils

// Find 按ids的顺序从dataMap中取出数据
// 返回：找到的数据（保持ids顺序），以及不存在的ID
func Find[K comparable, T any](dataMap map[K]T, ids []K) ([]T, []K) {
	found := make([]T, 0, len(ids))
	var missing []K
	for _, id := range ids {
		if d, ok := dataMap[id]; ok {
			found = append(found, d)
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing
}
