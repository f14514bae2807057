package cache

import (
	"github.com/cespare/xxhash/v2"
	"github.com/fireflycore/go-discover/registry"
)

// DefaultModulus 默认摘要模数
const DefaultModulus = 49999

// Scorer 计算单个实例的摘要分值，集合分值为成员分值之和，与顺序无关。
//
// 两个集合数量相同且分值相同即视为相等。哈希冲突可能漏掉一次变更，
// 下一次全量同步会修正。
type Scorer func(ins registry.ServiceInstance) uint64

// NewScorer 每个实例贡献 hash(address)%m + port%m + Σ hash(tag)%m。
func NewScorer(modulus uint64) Scorer {
	if modulus == 0 {
		modulus = DefaultModulus
	}
	return func(ins registry.ServiceInstance) uint64 {
		score := xxhash.Sum64String(ins.Address)%modulus + uint64(ins.Port)%modulus
		for _, tag := range ins.Tags {
			score += xxhash.Sum64String(tag) % modulus
		}
		return score
	}
}

// Sum 集合分值。
func (s Scorer) Sum(instances []registry.ServiceInstance) uint64 {
	var total uint64
	for _, ins := range instances {
		total += s(ins)
	}
	return total
}

// Equal 数量与分值都相同时视为相等。
func (s Scorer) Equal(a, b []registry.ServiceInstance) bool {
	return len(a) == len(b) && s.Sum(a) == s.Sum(b)
}
