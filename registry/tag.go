package registry

import "strings"

// SplitTags 按逗号拆分标签，去除空白与空项。
func SplitTags(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// FilterByTags 交集语义：实例必须携带每一个非空标签。
func FilterByTags(instances []ServiceInstance, tags []string) []ServiceInstance {
	if len(tags) == 0 {
		return instances
	}
	out := make([]ServiceInstance, 0, len(instances))
	for _, ins := range instances {
		if ins.HasTags(tags) {
			out = append(out, ins)
		}
	}
	return out
}

// MergeResolved 合并按单个标签查询得到的多组结果：按 (address, port) 去重后再做交集过滤，
// 保证注册中心侧与本地缓存侧的过滤结果一致。
func MergeResolved(groups [][]ServiceInstance, tags []string) []ServiceInstance {
	seen := make(map[string]struct{})
	merged := make([]ServiceInstance, 0)
	for _, group := range groups {
		for _, ins := range group {
			host := ins.Host()
			if _, ok := seen[host]; ok {
				continue
			}
			seen[host] = struct{}{}
			merged = append(merged, ins)
		}
	}
	return FilterByTags(merged, tags)
}
