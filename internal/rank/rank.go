package rank

import (
	"hash/fnv"
	"strconv"
)

// Key 计算 (seed, id) 的排序键：对 seed||id 做 FNV-1a 32。
// 存储层的 rank_key(seed, id) 必须与这里的定义完全一致，
// 否则 SQL 排序与内存洗牌的可复现性会被破坏。
func Key(seed, id string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	_, _ = h.Write([]byte(id))
	return h.Sum32()
}

// PageKey 将 seed 与页号组合成整页洗牌的基值
func PageKey(seed string, page int) uint32 {
	return Key(seed, strconv.Itoa(page))
}

// Shuffle 对一页结果做确定性 Fisher-Yates 洗牌。
// 第 i 步的下标取 (PageKey+i) mod (i+1)，同一 (seed, page, 输入顺序)
// 必然产生同一排列，用于把关注池与公共池的条目交错开。
func Shuffle[T any](items []T, seed string, page int) {
	h := uint64(PageKey(seed, page))
	for i := len(items) - 1; i > 0; i-- {
		j := int((h + uint64(i)) % uint64(i+1))
		items[i], items[j] = items[j], items[i]
	}
}

// Less 按排序键比较两个 id，键相同时退回 id 字典序，保证全序稳定
func Less(seed, a, b string) bool {
	ka, kb := Key(seed, a), Key(seed, b)
	if ka != kb {
		return ka < kb
	}
	return a < b
}
